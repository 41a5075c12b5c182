package chat

import (
	"github.com/gen2brain/beeep"

	"github.com/adamavenir/parley/internal/store"
	"github.com/adamavenir/parley/internal/types"
)

// Category classifies a message arriving while the viewer is scrolled up.
type Category int

const (
	// CategoryMessage is any new message not addressed to the viewer.
	CategoryMessage Category = iota
	// CategoryReply is a message replying to one of the viewer's own.
	CategoryReply
)

// Notifications counts messages that arrived while the viewer was not at
// the bottom, split into plain messages and replies to the viewer. Each
// counter pairs with a visibility flag for its jump-to-latest banner; both
// can be active at once and are dismissed independently.
type Notifications struct {
	messages     int
	replies      int
	showMessages bool
	showReplies  bool
}

// Signal records one arrival in the given category.
func (n *Notifications) Signal(category Category) {
	switch category {
	case CategoryReply:
		n.replies++
		n.showReplies = true
	default:
		n.messages++
		n.showMessages = true
	}
}

// Clear zeroes one category and hides its banner.
func (n *Notifications) Clear(category Category) {
	switch category {
	case CategoryReply:
		n.replies = 0
		n.showReplies = false
	default:
		n.messages = 0
		n.showMessages = false
	}
}

// ClearAll zeroes both categories.
func (n *Notifications) ClearAll() {
	n.Clear(CategoryMessage)
	n.Clear(CategoryReply)
}

// Messages returns the unseen-message count and banner visibility.
func (n *Notifications) Messages() (int, bool) {
	return n.messages, n.showMessages
}

// Replies returns the unseen-reply count and banner visibility.
func (n *Notifications) Replies() (int, bool) {
	return n.replies, n.showReplies
}

// Active reports whether any banner is showing.
func (n *Notifications) Active() bool {
	return n.showMessages || n.showReplies
}

// isReplyToViewer reports whether msg replies to a message the viewer wrote.
func isReplyToViewer(s *store.MessageStore, msg types.Message, userID string) bool {
	if msg.ReplyToID == nil {
		return false
	}
	target, ok := s.Get(*msg.ReplyToID)
	if !ok {
		return false
	}
	return target.AuthorID == userID
}

// sendDesktopNotification fires an OS notification for a reply to the
// viewer. Best effort; the caller logs and drops the error.
func sendDesktopNotification(authorLabel, content string) error {
	title := "parley · " + authorLabel
	return beeep.Notify(title, truncateLine(content, 100), "")
}
