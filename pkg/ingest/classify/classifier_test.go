package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/contacts"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/threads"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

func newTestClassifier(t *testing.T, rep errors.Reporter) *Classifier {
	t.Helper()
	reg := contacts.NewRegistry(nil, nil)
	reg.Load([]types.Raw{
		{"mri": "8:orgid:abc", "displayName": "Alice"},
		{"mri": "8:orgid:def", "displayName": "Bob"},
	})
	res := threads.NewResolver(nil, nil)
	res.Load([]threads.Entry{
		{TenantID: "t1", Thread: types.Raw{"id": "19:g@thread.v2"}},
		{TenantID: "t1", Thread: types.Raw{"id": "48:calllogs"}},
	})
	reg.Freeze()
	res.Freeze()
	return NewClassifier(reg, res, nil, rep)
}

func primary(t *testing.T, recs []types.Record) types.Record {
	t.Helper()
	require.NotEmpty(t, recs)
	return recs[0]
}

func TestClassify_TextMessage(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":                  "100",
		"sequenceId":          float64(7),
		"messageType":         "Text",
		"creator":             "8:orgid:abc",
		"imDisplayName":       "Alice",
		"content":             "hello there",
		"originalArrivalTime": "2023-11-14T22:13:20Z",
	}, "19:g@thread.v2")

	msg, ok := primary(t, recs).(types.Message)
	require.True(t, ok)
	assert.Equal(t, "t1", msg.TenantID)
	assert.Equal(t, "19:g@thread.v2", msg.ConversationID)
	assert.Equal(t, "100", msg.MessageID)
	assert.Equal(t, "7", msg.SequenceID)
	assert.Equal(t, "8:orgid:abc (Alice)", msg.Creator)
	assert.Equal(t, "hello there", msg.Content)
	assert.False(t, msg.HasAttachment)
	require.NotNil(t, msg.ArrivalTime)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), *msg.ArrivalTime)
}

func TestClassify_UnknownTypeFallsBackToMessage(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "101",
		"messageType": "ThreadActivity/AddMember",
		"content":     "x",
	}, "19:g@thread.v2")

	_, ok := primary(t, recs).(types.Message)
	assert.True(t, ok)
}

func TestClassify_UnknownConversationLeavesTenantEmpty(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{"id": "102", "messageType": "Text"}, "19:never-seen@thread.v2")
	assert.Empty(t, primary(t, recs).(types.Message).TenantID)
}

func TestClassify_RichTextCleaningAndAttachments(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "103",
		"messageType": "RichText/Html",
		"content":     `<p>see picture</p><img itemtype="http://schema.skype.com/AMSImage" src="https://ams.example/1">`,
		"properties": map[string]interface{}{
			"links": []interface{}{map[string]interface{}{"url": "https://example.com/doc"}},
		},
	}, "19:g@thread.v2")

	msg := primary(t, recs).(types.Message)
	assert.Equal(t, "see picture", msg.Content)
	assert.True(t, msg.HasAttachment)

	var atts []types.Attachment
	for _, r := range recs[1:] {
		if a, ok := r.(types.Attachment); ok {
			atts = append(atts, a)
		}
	}
	require.Len(t, atts, 2)
	assert.Equal(t, types.AttachmentTypeLink, atts[0].Type)
	assert.Equal(t, types.AttachmentTypeImage, atts[1].Type)
	assert.Equal(t, "103", atts[1].ParentMessageID)
}

func TestClassify_BlurHashAttachmentOnTextMessage(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "107",
		"messageType": "Text",
		"content":     "sent you a picture",
		"properties": map[string]interface{}{
			"blurHash": []interface{}{
				map[string]interface{}{"fileName": "img.png", "url": "https://ams.example/img"},
			},
		},
	}, "19:g@thread.v2")

	msg := primary(t, recs).(types.Message)
	assert.True(t, msg.HasAttachment)

	require.Len(t, recs, 2)
	att, ok := recs[1].(types.Attachment)
	require.True(t, ok)
	assert.Equal(t, types.AttachmentTypeBlurHash, att.Type)
	assert.Equal(t, "img.png", att.Name)
	assert.Equal(t, "107", att.ParentMessageID)
}

func TestClassify_FileNamesAsContentFallback(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "104",
		"messageType": "Text",
		"content":     "",
		"properties": map[string]interface{}{
			"files": []interface{}{
				map[string]interface{}{"fileName": "a.docx"},
				map[string]interface{}{"fileName": "b.txt"},
			},
		},
	}, "19:g@thread.v2")

	msg := primary(t, recs).(types.Message)
	assert.Equal(t, "a.docx | b.txt", msg.Content)
	assert.True(t, msg.HasAttachment)
}

func TestClassify_CallLogConversation(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "200",
		"sequenceId":  float64(1),
		"messageType": "Text",
		"content":     "call",
		"properties": map[string]interface{}{
			"call-log": map[string]interface{}{
				"startTime":             "2023-11-14T22:13:20Z",
				"endTime":               float64(1700000005000),
				"callDirection":         "outgoing",
				"callType":              "oneOnOne",
				"callState":             "ended",
				"callId":                "call-1",
				"originatorParticipant": map[string]interface{}{"id": "8:orgid:abc"},
				"targetParticipant":     map[string]interface{}{"id": "8:orgid:def"},
				"participants":          []interface{}{"8:orgid:abc", "8:orgid:def"},
				"participantList":       []interface{}{map[string]interface{}{"id": "8:orgid:abc"}},
			},
		},
	}, "48:calllogs")

	require.Len(t, recs, 1)
	cl, ok := recs[0].(types.CallLogConversation)
	require.True(t, ok)
	assert.Equal(t, "t1", cl.TenantID)
	assert.Equal(t, "2023-11-14 22:13:20", cl.StartTime)
	assert.Equal(t, "2023-11-14 22:13:25", cl.EndTime)
	assert.Equal(t, "00:00:05", cl.Duration)
	assert.Equal(t, "outgoing", cl.Direction)
	assert.Equal(t, "oneOnOne", cl.CallType)
	assert.Equal(t, "ended", cl.State)
	assert.Equal(t, "call-1", cl.CallID)
	assert.Equal(t, "8:orgid:abc (Alice)", cl.Originator)
	assert.Equal(t, "8:orgid:def (Bob)", cl.Target)
	assert.Equal(t, "8:orgid:abc (Alice); 8:orgid:def (Bob)", cl.Participants)
	assert.JSONEq(t, `[{"id":"8:orgid:abc"}]`, cl.ParticipantList)
}

func TestClassify_CallLogEncodedDetail(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "201",
		"messageType": "Text",
		"properties": map[string]interface{}{
			"call-log": `{"callDirection":"incoming","callId":"call-2"}`,
		},
	}, "48:calllogs")

	cl := primary(t, recs).(types.CallLogConversation)
	assert.Equal(t, "incoming", cl.Direction)
	assert.Equal(t, "call-2", cl.CallID)
}

func TestClassify_CallLogDurationAbsentWhenEndBeforeStart(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "202",
		"messageType": "Text",
		"properties": map[string]interface{}{
			"call-log": map[string]interface{}{
				"startTime": "2023-11-14T22:13:25Z",
				"endTime":   "2023-11-14T22:13:20Z",
			},
		},
	}, "48:calllogs")

	cl := primary(t, recs).(types.CallLogConversation)
	assert.Empty(t, cl.Duration)
	assert.Equal(t, "2023-11-14 22:13:25", cl.StartTime)
}

func TestClassify_CallLogRuleWinsOverMessageType(t *testing.T) {
	col := errors.NewCollector()
	c := newTestClassifier(t, col)
	recs := c.Classify(types.Raw{
		"id":          "203",
		"messageType": "Event/Call",
	}, "48:calllogs")

	_, ok := primary(t, recs).(types.CallLogConversation)
	assert.True(t, ok)
	assert.Equal(t, 1, col.CountByCode()[errors.CodeAmbiguousCategory])
}

func TestClassify_CallLogMissingDetailStillEmits(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{"id": "204", "messageType": "Text"}, "48:calllogs")

	cl := primary(t, recs).(types.CallLogConversation)
	assert.Equal(t, "204", cl.MessageID)
	assert.Empty(t, cl.Duration)
}

const recordingContent = `<RecordingStatus status="Success"/>` +
	`<OriginalName v="standup.mp4"/>` +
	`<RecordingInitiatorId value="8:orgid:abc"/>` +
	`<RecordingTerminatorId value="8:orgid:def"/>` +
	`<Id type="callId" value="call-9"/>` +
	`<RecordingContent duration="65" timestamp="1700000000000"/>` +
	`<MeetingOrganizerId value="8:orgid:abc"/>` +
	`<recording filename="standup.mp4"/>`

func TestClassify_CallRecording(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "300",
		"messageType": "RichText/Media_CallRecording",
		"content":     recordingContent,
	}, "19:g@thread.v2")

	ca, ok := primary(t, recs).(types.CallActivity)
	require.True(t, ok)
	assert.Equal(t, "Success", ca.Status)
	assert.Equal(t, "standup.mp4", ca.OriginalName)
	assert.Equal(t, "8:orgid:abc (Alice)", ca.Initiator)
	assert.Equal(t, "8:orgid:def (Bob)", ca.Terminator)
	assert.Equal(t, "call-9", ca.CallID)
	assert.Equal(t, "65", ca.Duration)
	assert.Equal(t, "2023-11-14 22:13:20", ca.Timestamp)
	assert.Equal(t, "8:orgid:abc (Alice)", ca.MeetingOrganizer)
	assert.Equal(t, "standup.mp4", ca.RecordingName)
}

func TestClassify_CallTranscript(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "301",
		"messageType": "RichText/Media_CallTranscript",
		"content":     `<transcript filename="meeting.vtt"/>`,
	}, "19:g@thread.v2")

	ca := primary(t, recs).(types.CallActivity)
	assert.Equal(t, "meeting.vtt", ca.TranscriptName)
}

func TestClassify_CallLogEmitsRecordingChild(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "302",
		"messageType": "Text",
		"content":     `<recording filename="huddle.mp4"/>`,
	}, "48:calllogs")

	require.Len(t, recs, 2)
	_, ok := recs[0].(types.CallLogConversation)
	assert.True(t, ok)
	child, ok := recs[1].(types.CallActivity)
	require.True(t, ok)
	assert.Equal(t, "huddle.mp4", child.RecordingName)
}

func TestClassify_MeetingEvent(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "400",
		"messageType": "Event/Call",
		"creator":     "8:orgid:abc",
		"threadTopic": "Weekly Sync",
		"content":     `{"meetingId": "meet-7"}`,
		"properties": map[string]interface{}{
			"meetingType":  "Scheduled",
			"organizerUpn": "alice@example.com",
			"startTime":    "2023-11-14T22:00:00Z",
			"endTime":      "2023-11-14T23:00:00Z",
			"participants": []interface{}{
				"8:orgid:abc",
				map[string]interface{}{"id": "8:orgid:def", "duration": float64(1800)},
			},
		},
	}, "19:g@thread.v2")

	me, ok := primary(t, recs).(types.MeetingEvent)
	require.True(t, ok)
	assert.Equal(t, "Weekly Sync", me.Title)
	assert.Equal(t, "meet-7", me.MeetingID)
	assert.Equal(t, "Scheduled", me.MeetingType)
	assert.Equal(t, "alice@example.com", me.OrganizerUPN)
	assert.Equal(t, "8:orgid:abc (Alice)", me.Creator)
	assert.Equal(t, "2023-11-14 22:00:00", me.StartTime)
	assert.Equal(t, "2023-11-14 23:00:00", me.EndTime)
	assert.Equal(t, "8:orgid:abc (Alice)\n8:orgid:def (Bob) - Duration: 1800 seconds", me.Participants)
}

func TestClassify_Reactions(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "500",
		"messageType": "Text",
		"content":     "nice",
		"properties": map[string]interface{}{
			"emotions": map[string]interface{}{
				"values": []interface{}{
					map[string]interface{}{
						"key": "like",
						"users": map[string]interface{}{
							"values": []interface{}{
								map[string]interface{}{"mri": "8:orgid:abc", "time": float64(1700000000000)},
								map[string]interface{}{"mri": "8:orgid:def"},
							},
						},
					},
				},
			},
		},
	}, "19:g@thread.v2")

	var reactions []types.Reaction
	for _, r := range recs {
		if re, ok := r.(types.Reaction); ok {
			reactions = append(reactions, re)
		}
	}
	require.Len(t, reactions, 2)
	assert.Equal(t, "like", reactions[0].Type)
	assert.Equal(t, "8:orgid:abc (Alice)", reactions[0].Sender)
	require.NotNil(t, reactions[0].Time)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), *reactions[0].Time)
	assert.Nil(t, reactions[1].Time)
}

func TestClassify_MentionsGroupedAndRejoined(t *testing.T) {
	c := newTestClassifier(t, nil)
	recs := c.Classify(types.Raw{
		"id":          "600",
		"messageType": "Text",
		"content":     "hi",
		"properties": map[string]interface{}{
			"mentions": []interface{}{
				map[string]interface{}{"mri": "8:orgid:abc", "mentionType": "person", "displayName": "Alice"},
				map[string]interface{}{"mri": "8:orgid:abc", "displayName": "( Ops"},
				map[string]interface{}{"mri": "8:orgid:abc", "displayName": ")"},
				map[string]interface{}{"mri": "8:orgid:def", "mentionType": "person", "displayName": "Bob"},
				map[string]interface{}{"displayName": "no mri, dropped"},
			},
		},
	}, "19:g@thread.v2")

	var mentions []types.Mention
	for _, r := range recs {
		if m, ok := r.(types.Mention); ok {
			mentions = append(mentions, m)
		}
	}
	require.Len(t, mentions, 2)
	assert.Equal(t, "8:orgid:abc", mentions[0].MRI)
	assert.Equal(t, "Alice (Ops)", mentions[0].DisplayName)
	assert.Equal(t, "person", mentions[0].MentionType)
	assert.Equal(t, "Bob", mentions[1].DisplayName)
}
