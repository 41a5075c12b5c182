package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/types"
)

type sendResultMsg struct {
	tempID        string
	attachmentURL string
	err           error
}

type attachmentCleanupMsg struct {
	err error
}

// handleSubmit sends the compose box. The provisional entry goes into the
// store before the durable write is issued; the temp id captured here is
// the rollback target no matter what else mutates the store while the
// write is in flight.
func (m *Model) handleSubmit(text string) tea.Cmd {
	content := strings.TrimSpace(text)
	if content == "" && m.attachment == nil {
		return nil
	}
	if m.sending {
		return nil
	}

	provisional := types.Message{
		ID:          core.NewTempID(),
		Content:     content,
		AuthorID:    m.userID,
		AuthorLabel: m.email,
		CreatedAt:   time.Now().UnixMilli(),
	}
	var attachmentURL string
	if m.attachment != nil {
		attachmentURL = m.attachment.URL
		provisional.AttachmentURL = attachmentURL
	}
	var replyTo *string
	if m.replyToID != "" {
		replyID := m.replyToID
		replyTo = &replyID
		provisional.ReplyToID = replyTo
		if target, ok := m.store.Get(replyID); ok {
			provisional.ReplyPreview = &types.ReplyPreview{
				AuthorLabel:   target.AuthorLabel,
				Content:       target.Content,
				HasAttachment: target.HasAttachment(),
			}
		}
	}

	m.store.ApplyInsert(provisional)
	m.refreshViewport(m.read.AtBottom())
	m.sending = true

	client := m.client
	payload := backend.NewMessage{
		Content:       content,
		AuthorID:      m.userID,
		AuthorLabel:   m.email,
		AttachmentURL: attachmentURL,
		ReplyToID:     replyTo,
	}
	tempID := provisional.ID
	return func() tea.Msg {
		_, err := client.InsertMessage(context.Background(), payload)
		return sendResultMsg{tempID: tempID, attachmentURL: attachmentURL, err: err}
	}
}

// handleSendResult finishes a send. Success clears the compose state and
// forces an immediate refetch so the durable row supersedes the provisional
// one; failure silently removes the provisional bubble and cleans up any
// orphaned attachment object.
func (m *Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false

	if msg.err != nil {
		m.logger.Printf("send: %v", msg.err)
		m.store.ApplyRemove(msg.tempID)
		m.refreshViewport(false)
		if msg.attachmentURL != "" && m.attachments != nil {
			return m, m.cleanupAttachmentCmd(msg.attachmentURL)
		}
		return m, nil
	}

	m.input.Reset()
	m.clearReply()
	m.attachment = nil
	return m, m.refreshNowCmd()
}

// cleanupAttachmentCmd deletes an uploaded object whose message never made
// it. Best effort: failure is logged, never surfaced.
func (m *Model) cleanupAttachmentCmd(url string) tea.Cmd {
	attachments := m.attachments
	return func() tea.Msg {
		return attachmentCleanupMsg{err: attachments.Delete(context.Background(), url)}
	}
}

func (m *Model) handleAttachmentCleanup(msg attachmentCleanupMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Printf("attachment cleanup: %v", msg.err)
	}
	return m, nil
}

func (m *Model) clearReply() {
	m.replyToID = ""
	m.replyToPreview = ""
}
