// Package classify routes each reply-chain message to its record category
// and projects it into the typed output records. The dispatch rules run in
// a fixed order: call-log conversation membership wins over the message
// type, and anything unrecognized still surfaces as a plain message.
package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/attachments"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/contacts"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/htmlclean"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/participants"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/threads"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/timestamp"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

type Classifier struct {
	reg     *contacts.Registry
	res     *threads.Resolver
	fmtr    *participants.Formatter
	cleaner *htmlclean.Cleaner

	log logging.Logger
	rep errors.Reporter
}

func NewClassifier(reg *contacts.Registry, res *threads.Resolver, log logging.Logger, rep errors.Reporter) *Classifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if rep == nil {
		rep = errors.NewNopReporter()
	}
	return &Classifier{
		reg:     reg,
		res:     res,
		fmtr:    participants.NewFormatter(reg),
		cleaner: htmlclean.NewCleaner(reg.Lookup),
		log:     log,
		rep:     rep,
	}
}

// Classify projects one raw message into its output records: exactly one
// primary record plus any reactions, mentions, and attachments it carries.
// The raw message is read only, never mutated.
func (c *Classifier) Classify(msg types.Raw, conversationID string) []types.Record {
	msgType := msg.Str("messageType")
	tenantID := c.res.TenantFor(conversationID)
	if tenantID == "" && conversationID != callLogConversationID {
		c.rep.Report(&errors.IngestError{
			Code:    errors.CodeUnresolvedReference,
			Phase:   "classify",
			Subject: conversationID,
			Message: "conversation not present in the conversations file, tenant left empty",
		})
	}

	var out []types.Record
	switch {
	case conversationID == callLogConversationID:
		if msgType == msgTypeEventCall || isRecordingType(msgType) {
			c.rep.Report(&errors.IngestError{
				Code:    errors.CodeAmbiguousCategory,
				Phase:   "classify",
				Subject: msg.Str("id"),
				Message: fmt.Sprintf("call-log conversation entry has message type %q, call-log rule wins", msgType),
			})
		}
		out = append(out, c.callLog(msg, conversationID, tenantID)...)
	case msgType == msgTypeEventCall:
		out = append(out, c.meetingEvent(msg, conversationID, tenantID))
	case isRecordingType(msgType):
		out = append(out, c.callActivity(msg, conversationID, tenantID))
	default:
		out = append(out, c.message(msg, conversationID, tenantID)...)
	}

	out = append(out, c.reactions(msg, tenantID)...)
	out = append(out, c.mentions(msg, conversationID, tenantID)...)
	return out
}

// message handles Text, RichText/Html, and every type without a dedicated
// rule. Rich-text bodies are cleaned; a file share with no body renders its
// file names instead.
func (c *Classifier) message(msg types.Raw, conversationID, tenantID string) []types.Record {
	props := msg.Map("properties")
	content := msg.Str("content")

	// Image placeholders in the properties mark attachments on any message
	// type, not just rich text.
	media := htmlclean.BlurHashMedia(props)
	if msg.Str("messageType") == msgTypeRichTextHTML {
		raw := content
		content, media = c.cleaner.Clean(content, props)
		// The cleaner degrades to raw pass-through rather than failing;
		// surviving markup means the fragment defeated the rules.
		if content == raw && strings.Contains(content, "</") {
			c.rep.Report(&errors.IngestError{
				Code:    errors.CodePartialContent,
				Phase:   "classify",
				Subject: msg.Str("id"),
				Message: "rich-text body passed through uncleaned",
			})
		}
	}
	if content == "" && props.Has("files") {
		content = attachments.FileNamesAsContent(props["files"])
	}

	msgID := msg.Str("id")
	atts := attachments.Extract(props, media, attachments.Owner{
		TenantID:       tenantID,
		ConversationID: conversationID,
		MessageID:      msgID,
	})

	rec := types.Message{
		TenantID:       tenantID,
		ConversationID: conversationID,
		MessageID:      msgID,
		SequenceID:     msg.Str("sequenceId"),
		Creator:        c.reg.Enrich(msg.Str("creator")),
		DisplayName:    msg.Str("imDisplayName"),
		Content:        content,
		MessageType:    msg.Str("messageType"),
		HasAttachment:  len(atts) > 0,
		Properties:     props.CompactJSON(),
		ArrivalTime:    timestamp.NormalizePtr(msg.Value("originalArrivalTime")),
		EditTime:       timestamp.NormalizePtr(props.Value("edittime")),
		ComposeTime:    timestamp.NormalizePtr(props.Value("composetime")),
		DeleteTime:     timestamp.NormalizePtr(props.Value("deletetime")),
		DraftTime:      timestamp.NormalizePtr(props.Value("drafttimestamp")),
	}

	out := make([]types.Record, 0, 1+len(atts))
	out = append(out, rec)
	for _, a := range atts {
		out = append(out, a)
	}
	return out
}

// callLog projects a call-history entry. The call detail lives under the
// "call-log" property, sometimes as a nested JSON string; a missing or
// undecodable detail still yields a record carrying the envelope fields.
func (c *Classifier) callLog(msg types.Raw, conversationID, tenantID string) []types.Record {
	props := msg.Map("properties")
	detail := decodeObject(props.Value("call-log"))
	if detail == nil && props.Has("call-log") {
		c.rep.Report(&errors.IngestError{
			Code:    errors.CodeMalformedInput,
			Phase:   "classify",
			Subject: msg.Str("id"),
			Message: "call-log property is not an object",
		})
	}

	rec := types.CallLogConversation{
		TenantID:       tenantID,
		ConversationID: conversationID,
		MessageID:      msg.Str("id"),
		SequenceID:     msg.Str("sequenceId"),
		Content:        msg.Str("content"),
		MessageType:    msg.Str("messageType"),
		Properties:     props.CompactJSON(),
		ArrivalTime:    timestamp.NormalizePtr(msg.Value("originalArrivalTime")),
	}

	if detail != nil {
		start := detail.Value("startTime")
		end := detail.Value("endTime")
		rec.StartTime = timestamp.Display(start)
		rec.EndTime = timestamp.Display(end)
		if d, ok := timestamp.Duration(start, end); ok {
			rec.Duration = d
		}
		rec.Direction = detail.Str("callDirection")
		rec.CallType = detail.Str("callType")
		rec.State = detail.Str("callState")
		rec.CallID = detail.Str("callId")
		rec.Originator = c.fmtr.FormatEntry(detail.Value("originatorParticipant"))
		rec.Target = c.fmtr.FormatEntry(detail.Value("targetParticipant"))
		rec.Participants = c.fmtr.FormatList(detail.Value("participants"))
		if pl := detail.Value("participantList"); pl != nil {
			if b, err := json.Marshal(pl); err == nil {
				rec.ParticipantList = string(b)
			}
		}
	}

	out := []types.Record{rec}
	// Recording references nested in a call-log entry surface as their own
	// activity record.
	if isRecordingType(msg.Str("messageType")) || hasRecordingMarkers(msg.Str("content")) {
		out = append(out, c.callActivity(msg, conversationID, tenantID))
	}
	return out
}

// callActivity projects a recording or transcript message, pulling the
// session fields out of the markup fragment in the body.
func (c *Classifier) callActivity(msg types.Raw, conversationID, tenantID string) types.Record {
	props := msg.Map("properties")
	content := msg.Str("content")

	rec := types.CallActivity{
		TenantID:       tenantID,
		ConversationID: conversationID,
		MessageID:      msg.Str("id"),
		SequenceID:     msg.Str("sequenceId"),
		Content:        content,
		MessageType:    msg.Str("messageType"),
		Properties:     props.CompactJSON(),
		ArrivalTime:    timestamp.NormalizePtr(msg.Value("originalArrivalTime")),
		EditTime:       timestamp.NormalizePtr(props.Value("edittime")),
		ComposeTime:    timestamp.NormalizePtr(props.Value("composetime")),
		DeleteTime:     timestamp.NormalizePtr(props.Value("deletetime")),
	}

	rec.Status = firstGroup(reRecordingStatus, content)
	rec.OriginalName = firstGroup(reOriginalName, content)
	if id := firstGroup(reInitiatorID, content); id != "" {
		rec.Initiator = c.reg.Enrich(id)
	}
	if id := firstGroup(reTerminatorID, content); id != "" {
		rec.Terminator = c.reg.Enrich(id)
	}
	rec.CallID = firstGroup(reCallID, content)
	rec.Duration = firstGroup(reRecDuration, content)
	if ts := firstGroup(reRecTimestamp, content); ts != "" {
		rec.Timestamp = timestamp.Display(ts)
	}
	if id := firstGroup(reMeetingOrgID, content); id != "" {
		rec.MeetingOrganizer = c.reg.Enrich(id)
	}
	rec.RecordingName = firstGroup(reRecordingFile, content)
	rec.TranscriptName = firstGroup(reTranscriptFile, content)
	return rec
}

// meetingEvent projects an Event/Call lifecycle message. Meeting metadata
// lives in the properties; the thread topic doubles as the title and the
// meeting id may only exist as a pattern inside the body.
func (c *Classifier) meetingEvent(msg types.Raw, conversationID, tenantID string) types.Record {
	props := msg.Map("properties")
	content := msg.Str("content")

	title := msg.Str("threadTopic")
	if title == "" {
		title = props.FirstStr("threadTopic", "title")
	}
	meetingID := firstGroup(reMeetingID, content)
	if meetingID == "" {
		meetingID = firstGroup(reConferenceID, content)
	}

	return types.MeetingEvent{
		TenantID:       tenantID,
		ConversationID: conversationID,
		MessageID:      msg.Str("id"),
		SequenceID:     msg.Str("sequenceId"),
		Creator:        c.reg.Enrich(msg.Str("creator")),
		Content:        content,
		MessageType:    msg.Str("messageType"),
		Properties:     props.CompactJSON(),
		ArrivalTime:    timestamp.NormalizePtr(msg.Value("originalArrivalTime")),
		EditTime:       timestamp.NormalizePtr(props.Value("edittime")),
		ComposeTime:    timestamp.NormalizePtr(props.Value("composetime")),
		DeleteTime:     timestamp.NormalizePtr(props.Value("deletetime")),
		Title:          title,
		MeetingID:      meetingID,
		MeetingType:    props.Str("meetingType"),
		OrganizerUPN:   props.Str("organizerUpn"),
		StartTime:      displayIfPresent(props.Value("startTime")),
		EndTime:        displayIfPresent(props.Value("endTime")),
		Participants:   c.fmtr.FormatLines(props.Value("participants")),
	}
}

// reactions walks properties.emotions, one record per reacting user.
func (c *Classifier) reactions(msg types.Raw, tenantID string) []types.Record {
	props := msg.Map("properties")
	emotions := props.Map("emotions")
	if emotions == nil {
		return nil
	}

	var out []types.Record
	for _, v := range emotions.ObjectList("values") {
		reactionType := v.Str("key")
		users := v.Map("users")
		for _, u := range users.ObjectList("values") {
			mri := u.Str("mri")
			out = append(out, types.Reaction{
				TenantID:   tenantID,
				MessageID:  msg.Str("id"),
				SequenceID: msg.Str("sequenceId"),
				Type:       reactionType,
				Sender:     c.reg.Enrich(mri),
				Time:       timestamp.NormalizePtr(u.Value("time")),
			})
		}
	}
	return out
}

func displayIfPresent(v interface{}) string {
	if v == nil {
		return ""
	}
	return timestamp.Display(v)
}

// decodeObject accepts a JSON object either natively decoded or still
// serialized as a string.
func decodeObject(v interface{}) types.Raw {
	switch obj := v.(type) {
	case map[string]interface{}:
		return types.Raw(obj)
	case types.Raw:
		return obj
	case string:
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(obj), &m); err != nil {
			return nil
		}
		return types.Raw(m)
	default:
		return nil
	}
}
