// Package types defines the forensic record set produced by the ingestion
// pipeline and the loosely-typed view over raw export JSON.
package types

import "time"

// Record is one typed forensic artifact emitted by the pipeline. Every
// variant carries a tenant id (empty when the owning thread was absent from
// the conversations file) and most carry conversation and message ids.
type Record interface {
	// Category returns the stable category tag persisted with the record.
	Category() string
}

// Record category tags.
const (
	CategoryMessage     = "message"
	CategoryCallLog     = "call_log"
	CategoryCallAct     = "call_activity"
	CategoryMeeting     = "meeting_event"
	CategoryGroupChat   = "group_chat"
	CategoryPrivateChat = "private_chat"
	CategoryChannelChat = "channel_chat"
	CategoryThread      = "thread"
	CategoryMember      = "member"
	CategoryContact     = "contact"
	CategoryMention     = "mention"
	CategoryReaction    = "reaction"
	CategoryAttachment  = "attachment"
)

// ThreadKind is the thread subtype derived from the thread id suffix.
type ThreadKind string

const (
	ThreadKindChannel ThreadKind = "channel"
	ThreadKindGroup   ThreadKind = "group"
	ThreadKindPrivate ThreadKind = "private"
	ThreadKindGeneric ThreadKind = "generic"
)

// Contact is one people-file entry. Immutable after creation and keyed by
// MRI for the lifetime of the run.
type Contact struct {
	MRI               string `json:"mri"`
	DisplayName       string `json:"display_name"`
	GivenName         string `json:"given_name,omitempty"`
	Surname           string `json:"surname,omitempty"`
	Email             string `json:"email,omitempty"`
	TenantName        string `json:"tenant_name,omitempty"`
	ObjectID          string `json:"object_id,omitempty"`
	UserType          string `json:"user_type,omitempty"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
}

func (Contact) Category() string { return CategoryContact }

// ThreadInfo is one conversation container, subtyped by its id suffix.
type ThreadInfo struct {
	ThreadID    string     `json:"thread_id"`
	Kind        ThreadKind `json:"kind"`
	ThreadType  string     `json:"thread_type,omitempty"` // source "type" field, verbatim
	TeamID      string     `json:"team_id,omitempty"`     // channel threads only
	TenantID    string     `json:"tenant_id,omitempty"`
	Topic       string     `json:"topic,omitempty"`
	Description string     `json:"description,omitempty"`
	Creator     string     `json:"creator,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	HasDraft    *bool      `json:"has_draft,omitempty"`
	MemberCount int        `json:"member_count,omitempty"`
}

func (t ThreadInfo) Category() string {
	switch t.Kind {
	case ThreadKindChannel:
		return CategoryChannelChat
	case ThreadKindGroup:
		return CategoryGroupChat
	case ThreadKindPrivate:
		return CategoryPrivateChat
	default:
		return CategoryThread
	}
}

// Member is one thread membership entry.
type Member struct {
	ThreadID    string `json:"thread_id"`
	TenantID    string `json:"tenant_id,omitempty"`
	MRI         string `json:"mri"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

func (Member) Category() string { return CategoryMember }

// Message is a plain chat message (text or cleaned rich text).
type Message struct {
	TenantID       string     `json:"tenant_id,omitempty"`
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id"`
	SequenceID     string     `json:"sequence_id,omitempty"`
	Creator        string     `json:"creator,omitempty"` // enriched "mri (name)" form
	DisplayName    string     `json:"display_name,omitempty"`
	Content        string     `json:"content"`
	MessageType    string     `json:"message_type,omitempty"`
	HasAttachment  bool       `json:"has_attachment"`
	Properties     string     `json:"properties,omitempty"` // original payload, compact JSON
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`
	EditTime       *time.Time `json:"edit_time,omitempty"`
	ComposeTime    *time.Time `json:"compose_time,omitempty"`
	DeleteTime     *time.Time `json:"delete_time,omitempty"`
	DraftTime      *time.Time `json:"draft_time,omitempty"`
}

func (Message) Category() string { return CategoryMessage }

// Attachment is a file, link, or media reference owned by exactly one
// message. It is emitted as an independent record referencing its parent.
type Attachment struct {
	TenantID        string `json:"tenant_id,omitempty"`
	ConversationID  string `json:"conversation_id"`
	ParentMessageID string `json:"parent_message_id"`
	Name            string `json:"name,omitempty"`
	Type            string `json:"type,omitempty"`
	URL             string `json:"url,omitempty"`
}

func (Attachment) Category() string { return CategoryAttachment }

// Attachment type tags produced by the cleaner and extractor.
const (
	AttachmentTypeLink     = "link"
	AttachmentTypeFile     = "file"
	AttachmentTypeImage    = "AMSImage"
	AttachmentTypeGIF      = "gif"
	AttachmentTypeSticker  = "sticker"
	AttachmentTypeBlurHash = "blurHash"
)

// CallLogConversation is one entry from the synthetic call-log conversation.
type CallLogConversation struct {
	TenantID        string     `json:"tenant_id,omitempty"`
	ConversationID  string     `json:"conversation_id"`
	MessageID       string     `json:"message_id"`
	SequenceID      string     `json:"sequence_id,omitempty"`
	Content         string     `json:"content,omitempty"`
	MessageType     string     `json:"message_type,omitempty"`
	Properties      string     `json:"properties,omitempty"`
	ArrivalTime     *time.Time `json:"arrival_time,omitempty"`
	StartTime       string     `json:"start_time,omitempty"` // display form, UTC
	EndTime         string     `json:"end_time,omitempty"`
	Duration        string     `json:"duration,omitempty"` // HH:MM:SS
	Direction       string     `json:"direction,omitempty"`
	CallType        string     `json:"call_type,omitempty"`
	State           string     `json:"state,omitempty"`
	CallID          string     `json:"call_id,omitempty"`
	Originator      string     `json:"originator,omitempty"` // enriched
	Target          string     `json:"target,omitempty"`     // enriched
	Participants    string     `json:"participants,omitempty"`
	ParticipantList string     `json:"participant_list,omitempty"` // compact JSON
}

func (CallLogConversation) Category() string { return CategoryCallLog }

// CallActivity is a call recording or transcript message.
type CallActivity struct {
	TenantID         string     `json:"tenant_id,omitempty"`
	ConversationID   string     `json:"conversation_id"`
	MessageID        string     `json:"message_id"`
	SequenceID       string     `json:"sequence_id,omitempty"`
	Content          string     `json:"content,omitempty"`
	MessageType      string     `json:"message_type,omitempty"`
	Properties       string     `json:"properties,omitempty"`
	ArrivalTime      *time.Time `json:"arrival_time,omitempty"`
	EditTime         *time.Time `json:"edit_time,omitempty"`
	ComposeTime      *time.Time `json:"compose_time,omitempty"`
	DeleteTime       *time.Time `json:"delete_time,omitempty"`
	Status           string     `json:"status,omitempty"`
	OriginalName     string     `json:"original_name,omitempty"`
	Initiator        string     `json:"initiator,omitempty"`  // enriched
	Terminator       string     `json:"terminator,omitempty"` // enriched
	CallID           string     `json:"call_id,omitempty"`
	Duration         string     `json:"duration,omitempty"`
	Timestamp        string     `json:"timestamp,omitempty"` // display form, UTC
	MeetingOrganizer string     `json:"meeting_organizer,omitempty"`
	RecordingName    string     `json:"recording_name,omitempty"`
	TranscriptName   string     `json:"transcript_name,omitempty"`
}

func (CallActivity) Category() string { return CategoryCallAct }

// MeetingEvent is an Event/Call meeting lifecycle message.
type MeetingEvent struct {
	TenantID       string     `json:"tenant_id,omitempty"`
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id"`
	SequenceID     string     `json:"sequence_id,omitempty"`
	Creator        string     `json:"creator,omitempty"` // enriched
	Content        string     `json:"content,omitempty"`
	MessageType    string     `json:"message_type,omitempty"`
	Properties     string     `json:"properties,omitempty"`
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`
	EditTime       *time.Time `json:"edit_time,omitempty"`
	ComposeTime    *time.Time `json:"compose_time,omitempty"`
	DeleteTime     *time.Time `json:"delete_time,omitempty"`
	Title          string     `json:"title,omitempty"`
	MeetingID      string     `json:"meeting_id,omitempty"`
	MeetingType    string     `json:"meeting_type,omitempty"`
	OrganizerUPN   string     `json:"organizer_upn,omitempty"`
	StartTime      string     `json:"start_time,omitempty"` // display form, UTC
	EndTime        string     `json:"end_time,omitempty"`
	Participants   string     `json:"participants,omitempty"` // one formatted line per participant
}

func (MeetingEvent) Category() string { return CategoryMeeting }

// Mention is one @-mention found in a message.
type Mention struct {
	TenantID       string `json:"tenant_id,omitempty"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	MRI            string `json:"mri"`
	MentionType    string `json:"mention_type,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
}

func (Mention) Category() string { return CategoryMention }

// Reaction is one emotion applied to a message by one user.
type Reaction struct {
	TenantID   string     `json:"tenant_id,omitempty"`
	MessageID  string     `json:"message_id"`
	SequenceID string     `json:"sequence_id,omitempty"`
	Type       string     `json:"type"`
	Sender     string     `json:"sender,omitempty"` // enriched
	Time       *time.Time `json:"time,omitempty"`
}

func (Reaction) Category() string { return CategoryReaction }
