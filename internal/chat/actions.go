package chat

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/types"
)

type editResultMsg struct {
	messageID string
	content   string
	err       error
}

type deleteResultMsg struct {
	messageID     string
	attachmentURL string
	err           error
}

type uploadResultMsg struct {
	url  string
	kind types.AttachmentKind
	err  error
}

// handleCommand dispatches a slash command from the compose box.
func (m *Model) handleCommand(text string) tea.Cmd {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	name := fields[0]
	args := fields[1:]

	switch name {
	case "/reply":
		m.commandReply(args)
		return nil
	case "/unreply":
		m.clearReply()
		m.status = ""
		return nil
	case "/edit":
		return m.commandEdit(args, text)
	case "/rm":
		return m.commandDelete(args)
	case "/react":
		return m.commandReact(args)
	case "/copy":
		m.commandCopy(args)
		return nil
	case "/attach":
		return m.commandAttach(args)
	case "/detach":
		cmd := m.detachPending()
		m.status = ""
		return cmd
	case "/help":
		m.status = "/reply <id> · /unreply · /edit <id> <text> · /rm <id> · /react <id> <emoji> · /copy <id> · /attach <path> · /quit"
		return nil
	case "/quit":
		return tea.Quit
	default:
		m.status = fmt.Sprintf("unknown command %s (try /help)", name)
		return nil
	}
}

// resolveMessageRef matches a short id reference against the store, the way
// ids render in the message list. Ambiguous prefixes are an error.
func (m *Model) resolveMessageRef(ref string) (types.Message, bool) {
	if msg, ok := m.store.Get(ref); ok {
		return msg, true
	}
	var match types.Message
	count := 0
	for _, msg := range m.store.Snapshot() {
		if strings.HasPrefix(msg.ID, ref) {
			match = msg
			count++
		}
	}
	if count != 1 {
		if count > 1 {
			m.status = fmt.Sprintf("ambiguous message id %q", ref)
		} else {
			m.status = fmt.Sprintf("no message matching %q", ref)
		}
		return types.Message{}, false
	}
	return match, true
}

func (m *Model) commandReply(args []string) {
	if len(args) != 1 {
		m.status = "usage: /reply <id>"
		return
	}
	target, ok := m.resolveMessageRef(args[0])
	if !ok {
		return
	}
	if target.Provisional() {
		m.status = "cannot reply to an unconfirmed message"
		return
	}
	m.replyToID = target.ID
	m.replyToPreview = replyPreviewLine(target)
	m.status = ""
}

// commandEdit edits one of the viewer's own messages. Not optimistic: the
// store only changes once the durable write succeeds.
func (m *Model) commandEdit(args []string, raw string) tea.Cmd {
	if len(args) < 2 {
		m.status = "usage: /edit <id> <new content>"
		return nil
	}
	target, ok := m.resolveMessageRef(args[0])
	if !ok {
		return nil
	}
	if target.AuthorID != m.userID {
		m.status = "you can only edit your own messages"
		return nil
	}
	if target.Provisional() {
		m.status = "message is still sending"
		return nil
	}

	// Search past the command token: a short id ref like "ed" would
	// otherwise match inside "/edit" itself.
	rest := strings.TrimPrefix(raw, "/edit")
	idx := strings.Index(rest, args[0])
	content := strings.TrimSpace(rest[idx+len(args[0]):])

	client := m.client
	userID := m.userID
	messageID := target.ID
	return func() tea.Msg {
		err := client.UpdateMessageContent(context.Background(), messageID, userID, content)
		return editResultMsg{messageID: messageID, content: content, err: err}
	}
}

func (m *Model) handleEditResult(msg editResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Printf("edit: %v", msg.err)
		m.status = "failed to edit message: " + msg.err.Error()
		return m, nil
	}
	if current, ok := m.store.Get(msg.messageID); ok {
		current.Content = msg.content
		current.Edited = true
		m.store.ApplyReplace(msg.messageID, current)
		m.refreshViewport(false)
	}
	m.status = ""
	return m, nil
}

// commandDelete removes one of the viewer's own messages. The durable
// delete is constrained by id and author; the store only changes on
// success.
func (m *Model) commandDelete(args []string) tea.Cmd {
	if len(args) != 1 {
		m.status = "usage: /rm <id>"
		return nil
	}
	target, ok := m.resolveMessageRef(args[0])
	if !ok {
		return nil
	}
	if target.AuthorID != m.userID {
		m.status = "you can only delete your own messages"
		return nil
	}
	if target.Provisional() {
		m.status = "message is still sending"
		return nil
	}

	client := m.client
	userID := m.userID
	messageID := target.ID
	attachmentURL := target.AttachmentURL
	return func() tea.Msg {
		err := client.DeleteMessage(context.Background(), messageID, userID)
		return deleteResultMsg{messageID: messageID, attachmentURL: attachmentURL, err: err}
	}
}

func (m *Model) handleDeleteResult(msg deleteResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Printf("delete: %v", msg.err)
		m.status = "failed to delete message: " + msg.err.Error()
		return m, nil
	}
	m.store.ApplyRemove(msg.messageID)
	m.refreshViewport(false)
	m.status = ""
	if msg.attachmentURL != "" && m.attachments != nil {
		return m, m.cleanupAttachmentCmd(msg.attachmentURL)
	}
	return m, nil
}

func (m *Model) commandReact(args []string) tea.Cmd {
	if len(args) != 2 {
		m.status = "usage: /react <id> <emoji>  (" + strings.Join(emojiOptions, " ") + ")"
		return nil
	}
	target, ok := m.resolveMessageRef(args[0])
	if !ok {
		return nil
	}
	m.status = ""
	return m.toggleReaction(target.ID, args[1])
}

func (m *Model) commandCopy(args []string) {
	if len(args) != 1 {
		m.status = "usage: /copy <id>"
		return
	}
	target, ok := m.resolveMessageRef(args[0])
	if !ok {
		return
	}
	if err := clipboard.WriteAll(target.Content); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied"
}

// commandAttach uploads a local file and parks the resulting URL on the
// compose box until the next send.
func (m *Model) commandAttach(args []string) tea.Cmd {
	if m.attachments == nil {
		m.status = "attachments are not configured"
		return nil
	}
	if len(args) != 1 {
		m.status = "usage: /attach <path>"
		return nil
	}
	if m.uploading {
		m.status = "an upload is already in progress"
		return nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		m.status = "attach: " + err.Error()
		return nil
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	m.uploading = true
	m.status = fmt.Sprintf("uploading %s (%s)", filepath.Base(path), humanize.Bytes(uint64(len(data))))

	attachments := m.attachments
	userID := m.userID
	fileName := filepath.Base(path)
	return func() tea.Msg {
		url, err := attachments.Upload(context.Background(), userID, fileName, contentType, data)
		if err != nil {
			return uploadResultMsg{err: err}
		}
		kind := types.AttachmentImage
		if !strings.HasPrefix(contentType, "image/") {
			kind = types.AttachmentDocument
		}
		return uploadResultMsg{url: url, kind: kind}
	}
}

func (m *Model) handleUploadResult(msg uploadResultMsg) (tea.Model, tea.Cmd) {
	m.uploading = false
	if msg.err != nil {
		m.logger.Printf("upload: %v", msg.err)
		m.status = "upload failed: " + msg.err.Error()
		return m, nil
	}
	m.attachment = &pendingAttachment{URL: msg.url, Kind: msg.kind}
	m.status = "attachment ready (" + string(msg.kind) + "); send to include it, /detach to drop"
	return m, nil
}

// detachPending drops an uploaded-but-unsent attachment and deletes the
// orphaned object.
func (m *Model) detachPending() tea.Cmd {
	if m.attachment == nil {
		return nil
	}
	url := m.attachment.URL
	m.attachment = nil
	if m.attachments == nil {
		return nil
	}
	return m.cleanupAttachmentCmd(url)
}

func replyPreviewLine(msg types.Message) string {
	if msg.Content != "" {
		return core.LabelName(msg.AuthorLabel) + ": " + msg.Content
	}
	if msg.HasAttachment() {
		return core.LabelName(msg.AuthorLabel) + ": attachment"
	}
	return core.LabelName(msg.AuthorLabel)
}
