package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/types"
)

// emojiOptions is the reaction picker palette.
var emojiOptions = []string{"👍", "❤️", "😂", "😮", "😢", "👏", "🎉", "🔥"}

type reactionResultMsg struct {
	messageID string
	reactions []types.Reaction
}

type reactionFailedMsg struct {
	messageID string
	previous  []types.Reaction
	err       error
}

// planReactionToggle computes the optimistic reaction set for one toggle:
// the same emoji again removes the user's reaction, anything else replaces
// it. Returns the new set and whether a durable insert should follow the
// delete.
func planReactionToggle(reactions []types.Reaction, userID, emoji string, now int64) ([]types.Reaction, bool) {
	var mine *types.Reaction
	next := make([]types.Reaction, 0, len(reactions)+1)
	for _, r := range reactions {
		if r.UserID == userID {
			mine = &r
			continue
		}
		next = append(next, r)
	}

	if mine != nil && mine.Emoji == emoji {
		return next, false
	}
	next = append(next, types.Reaction{
		ID:        core.NewTempID(),
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: now,
	})
	return next, true
}

// toggleReaction runs one reconciliation round for (message, viewer). The
// pre-optimistic reaction set is captured before the first yield so a fatal
// failure at any later step can restore it in full, regardless of what else
// touched the store in between.
func (m *Model) toggleReaction(messageID, emoji string) tea.Cmd {
	msg, ok := m.store.Get(messageID)
	if !ok || msg.Provisional() {
		return nil
	}

	previous := make([]types.Reaction, len(msg.Reactions))
	copy(previous, msg.Reactions)

	next, shouldInsert := planReactionToggle(msg.Reactions, m.userID, emoji, time.Now().UnixMilli())
	m.store.ApplyReactionSet(messageID, next)
	m.refreshViewport(false)

	client := m.client
	userID := m.userID
	email := m.email
	return func() tea.Msg {
		ctx := context.Background()

		// Clear any existing row for (message, user); idempotent if none.
		if err := client.DeleteReaction(ctx, messageID, userID); err != nil {
			return reactionFailedMsg{messageID: messageID, previous: previous, err: err}
		}

		if shouldInsert {
			// The insert is the authoritative check; the upsert just keeps
			// the foreign key satisfied in the common case.
			_ = client.UpsertProfile(ctx, types.Profile{ID: userID, Email: email})

			if _, err := client.InsertReaction(ctx, messageID, userID, emoji); err != nil {
				if backend.IsUniqueViolation(err) {
					// A concurrent writer already satisfied the one-reaction
					// invariant; fall through to the refetch.
				} else {
					return reactionFailedMsg{messageID: messageID, previous: previous, err: err}
				}
			}
		}

		reactions, err := client.ReactionsForMessage(ctx, messageID)
		if err != nil {
			return reactionFailedMsg{messageID: messageID, previous: previous, err: err}
		}
		return reactionResultMsg{messageID: messageID, reactions: reactions}
	}
}

// handleReactionResult overwrites the message's reaction set with the
// authoritative one, resolving any divergence between the optimistic guess
// and true server state.
func (m *Model) handleReactionResult(msg reactionResultMsg) (tea.Model, tea.Cmd) {
	m.store.ApplyReactionSet(msg.messageID, msg.reactions)
	m.refreshViewport(false)
	return m, nil
}

// handleReactionFailed restores the pre-optimistic reaction set in full.
func (m *Model) handleReactionFailed(msg reactionFailedMsg) (tea.Model, tea.Cmd) {
	m.logger.Printf("reaction toggle: %v", msg.err)
	m.store.ApplyReactionSet(msg.messageID, msg.previous)
	m.refreshViewport(false)
	m.status = "reaction failed"
	return m, nil
}
