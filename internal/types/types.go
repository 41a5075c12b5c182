package types

import "strings"

// TempIDPrefix marks a locally-generated provisional message or reaction id.
const TempIDPrefix = "temp-"

// AttachmentKind classifies an attachment by how it should be presented.
type AttachmentKind string

const (
	AttachmentNone     AttachmentKind = ""
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Message represents a room message.
type Message struct {
	ID            string        `json:"id"`
	Content       string        `json:"content"`
	AuthorID      string        `json:"user_id"`
	AuthorLabel   string        `json:"user_email,omitempty"`
	CreatedAt     int64         `json:"created_at"`
	Edited        bool          `json:"is_edited,omitempty"`
	AttachmentURL string        `json:"attachment_url,omitempty"`
	ReplyToID     *string       `json:"reply_to_id,omitempty"`
	ReplyPreview  *ReplyPreview `json:"-"`
	Reactions     []Reaction    `json:"reactions,omitempty"`
}

// ReplyPreview is a denormalized copy of a reply target, resolved eagerly so
// rendering a reply never needs a second lookup.
type ReplyPreview struct {
	AuthorLabel   string
	Content       string
	HasAttachment bool
}

// Reaction represents a single emoji reaction on a message.
type Reaction struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Emoji     string `json:"emoji"`
	CreatedAt int64  `json:"created_at"`
}

// Provisional reports whether the message only exists locally, awaiting
// server confirmation.
func (m Message) Provisional() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// HasAttachment reports whether the message carries an attachment reference.
func (m Message) HasAttachment() bool {
	return m.AttachmentURL != ""
}

// Kind derives the attachment kind from the stored URL. Documents live under
// a documents area or end in .pdf; everything else renders as an image.
func (m Message) Kind() AttachmentKind {
	if m.AttachmentURL == "" {
		return AttachmentNone
	}
	lower := strings.ToLower(m.AttachmentURL)
	if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "/chat-documents/") {
		return AttachmentDocument
	}
	return AttachmentImage
}

// ReactionOf returns the user's reaction on the message, if any.
func (m Message) ReactionOf(userID string) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].UserID == userID {
			return &m.Reactions[i]
		}
	}
	return nil
}

// Profile is the durable identity row for a chat user.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// InsertEvent is the raw push-channel payload for a message insert. Fields
// are loose on purpose; Validate narrows them into a Message at the
// ingestion boundary.
type InsertEvent struct {
	Table  string  `json:"table"`
	Event  string  `json:"event"`
	Record Message `json:"record"`
}

// Validate checks that an insert event carries a well-formed message row.
func (e InsertEvent) Validate() (Message, bool) {
	if e.Table != "" && e.Table != "messages" {
		return Message{}, false
	}
	if e.Event != "" && e.Event != "INSERT" {
		return Message{}, false
	}
	msg := e.Record
	if msg.ID == "" || msg.AuthorID == "" {
		return Message{}, false
	}
	if msg.Content == "" && msg.AttachmentURL == "" {
		return Message{}, false
	}
	if msg.CreatedAt <= 0 {
		return Message{}, false
	}
	return msg, true
}
