package chat

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case pollMsg:
		return m.handlePollMsg(msg)
	case pollErrMsg:
		return m.handlePollErr(msg)
	case subscribedMsg:
		return m.handleSubscribed(msg)
	case subscribeFailedMsg:
		return m.handleSubscribeFailed(msg)
	case insertEventMsg:
		return m.handleInsertEvent(msg)
	case realtimeClosedMsg:
		return m.handleRealtimeClosed(msg)
	case scrollSettleMsg:
		return m.handleScrollSettle(msg)
	case sendResultMsg:
		return m.handleSendResult(msg)
	case attachmentCleanupMsg:
		return m.handleAttachmentCleanup(msg)
	case reactionResultMsg:
		return m.handleReactionResult(msg)
	case reactionFailedMsg:
		return m.handleReactionFailed(msg)
	case editResultMsg:
		return m.handleEditResult(msg)
	case deleteResultMsg:
		return m.handleDeleteResult(msg)
	case uploadResultMsg:
		return m.handleUploadResult(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.resize()
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlJ {
		m.input.InsertString("\n")
		m.resize()
		return m, nil
	}
	if msg.Type == tea.KeyRunes && msg.Paste {
		m.input.InsertString(normalizeNewlines(string(msg.Runes)))
		m.resize()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() != "" || m.replyToID != "" {
			m.input.Reset()
			m.clearReply()
			m.resize()
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyEsc:
		if m.replyToID != "" {
			m.clearReply()
			return m, nil
		}
		m.status = ""
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" && m.attachment == nil {
			return m, nil
		}
		if strings.HasPrefix(value, "/") {
			m.input.Reset()
			cmd := m.handleCommand(value)
			m.resize()
			return m, cmd
		}
		return m, m.handleSubmit(value)
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		settle := m.observeScroll()
		return m, tea.Batch(cmd, settle)
	case tea.KeyEnd:
		m.scrollToLatest()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resize()
	return m, cmd
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Shift {
		return m, nil
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if handled, cmd := m.handleMouseClick(msg); handled {
			return m, cmd
		}
	}

	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		settle := m.observeScroll()
		return m, tea.Batch(cmd, settle)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleMouseClick(msg tea.MouseMsg) (bool, tea.Cmd) {
	if m.notify.Active() {
		if m.zoneManager.Get("banner-messages").InBounds(msg) {
			m.notify.Clear(CategoryMessage)
			m.jumpToLatest()
			return true, nil
		}
		if m.zoneManager.Get("banner-replies").InBounds(msg) {
			m.notify.Clear(CategoryReply)
			m.jumpToLatest()
			return true, nil
		}
	}
	if m.replyToID != "" && m.zoneManager.Get("reply-cancel").InBounds(msg) {
		m.clearReply()
		return true, nil
	}

	for _, message := range m.store.Snapshot() {
		if m.zoneManager.Get("byline-" + message.ID).InBounds(msg) {
			if message.Provisional() {
				return true, nil
			}
			m.replyToID = message.ID
			m.replyToPreview = replyPreviewLine(message)
			m.resize()
			return true, nil
		}
		if m.zoneManager.Get("footer-" + message.ID).InBounds(msg) {
			if err := clipboard.WriteAll(message.ID); err == nil {
				m.status = "copied message id"
			}
			return true, nil
		}
		for _, emoji := range emojiOptions {
			if m.zoneManager.Get("react-" + message.ID + "-" + emoji).InBounds(msg) {
				return true, m.toggleReaction(message.ID, emoji)
			}
		}
	}
	return false, nil
}
