package classify

import "regexp"

// Message types with dedicated handling. Anything else flows down the
// default message path.
const (
	msgTypeText           = "Text"
	msgTypeRichTextHTML   = "RichText/Html"
	msgTypeEventCall      = "Event/Call"
	msgTypeCallRecording  = "RichText/Media_CallRecording"
	msgTypeCallTranscript = "RichText/Media_CallTranscript"
)

// The synthetic conversation Teams writes call history into.
const callLogConversationID = "48:calllogs"

// Recording and transcript bodies are XML-ish fragments, not full
// documents; the fields are pulled by pattern rather than parsed.
var (
	reRecordingStatus = regexp.MustCompile(`<RecordingStatus[^>]*status="([^"]+)"`)
	reOriginalName    = regexp.MustCompile(`<OriginalName[^>]*v="([^"]+)"`)
	reInitiatorID     = regexp.MustCompile(`<RecordingInitiatorId[^>]*value="([^"]+)"`)
	reTerminatorID    = regexp.MustCompile(`<RecordingTerminatorId[^>]*value="([^"]+)"`)
	reCallID          = regexp.MustCompile(`<Id[^>]*type="callId"[^>]*value="([^"]+)"`)
	reRecDuration     = regexp.MustCompile(`<RecordingContent[^>]*duration="([^"]+)"`)
	reRecTimestamp    = regexp.MustCompile(`<RecordingContent[^>]*timestamp="([^"]+)"`)
	reMeetingOrgID    = regexp.MustCompile(`<MeetingOrganizerId[^>]*value="([^"]*)"`)
	reRecordingFile   = regexp.MustCompile(`<recording[^>]*?filename="([^"]*)"`)
	reTranscriptFile  = regexp.MustCompile(`<transcript[^>]*?filename="([^"]*)"`)

	reMeetingID    = regexp.MustCompile(`meetingId["\s]*[:=]\s*["']([^"']*)`)
	reConferenceID = regexp.MustCompile(`conference[iI]d["\s]*[:=]\s*["']([^"']*)`)
)

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func isRecordingType(msgType string) bool {
	return msgType == msgTypeCallRecording || msgType == msgTypeCallTranscript
}

// hasRecordingMarkers reports whether a body carries embedded recording
// references, used to surface recording children inside call-log entries.
func hasRecordingMarkers(content string) bool {
	return reRecordingStatus.MatchString(content) ||
		reRecordingFile.MatchString(content) ||
		reTranscriptFile.MatchString(content)
}
