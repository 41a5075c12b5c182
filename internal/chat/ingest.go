package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/types"
)

type subscribedMsg struct {
	realtime *backend.Realtime
}

type subscribeFailedMsg struct {
	err error
}

type insertEventMsg struct {
	message types.Message
}

type realtimeClosedMsg struct {
	err error
}

// subscribeCmd dials the push channel once per session. Failure is
// non-fatal: the session keeps reconciling through the poll path alone.
func (m *Model) subscribeCmd() tea.Cmd {
	baseURL := m.backendURL
	token := m.token
	return func() tea.Msg {
		realtime, err := backend.Subscribe(context.Background(), baseURL, token)
		if err != nil {
			return subscribeFailedMsg{err: err}
		}
		return subscribedMsg{realtime: realtime}
	}
}

// listenCmd blocks on the next push event. Validation and author-label
// resolution happen here, off the update loop, so the handler only ever
// does synchronous store mutation. The label cache snapshot taken at arm
// time is enough: a stale miss just costs one extra profile lookup.
func (m *Model) listenCmd() tea.Cmd {
	realtime := m.realtime
	client := m.client
	known := make(map[string]string, len(m.labels))
	for id, label := range m.labels {
		known[id] = label
	}

	return func() tea.Msg {
		ctx := context.Background()
		for {
			event, err := realtime.Next(ctx)
			if err != nil {
				return realtimeClosedMsg{err: err}
			}
			msg, ok := event.Validate()
			if !ok {
				continue
			}
			if !usableLabel(msg.AuthorLabel) {
				if label, ok := known[msg.AuthorID]; ok {
					msg.AuthorLabel = label
				} else if profile, err := client.GetProfile(ctx, msg.AuthorID); err == nil && profile.Email != "" {
					msg.AuthorLabel = profile.Email
				} else {
					msg.AuthorLabel = "Unknown"
				}
			}
			return insertEventMsg{message: msg}
		}
	}
}

func (m *Model) handleSubscribed(msg subscribedMsg) (tea.Model, tea.Cmd) {
	m.realtime = msg.realtime
	m.realtimeDown = false
	return m, m.listenCmd()
}

func (m *Model) handleSubscribeFailed(msg subscribeFailedMsg) (tea.Model, tea.Cmd) {
	m.logger.Printf("realtime subscribe: %v", msg.err)
	m.realtimeDown = true
	return m, nil
}

func (m *Model) handleRealtimeClosed(msg realtimeClosedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Printf("realtime closed: %v", msg.err)
	}
	m.realtime = nil
	m.realtimeDown = true
	return m, nil
}

// handleInsertEvent merges one push-delivered message. The badge-vs-scroll
// decision reads the read position and the reply target before the store
// mutates, matching what the viewer was actually looking at when the
// message arrived.
func (m *Model) handleInsertEvent(msg insertEventMsg) (tea.Model, tea.Cmd) {
	incoming := msg.message
	if usableLabel(incoming.AuthorLabel) {
		m.labels[incoming.AuthorID] = incoming.AuthorLabel
	}

	wasAtBottom := m.read.AtBottom()
	replyToViewer := isReplyToViewer(m.store, incoming, m.userID)

	if incoming.ReplyToID != nil {
		if target, ok := m.store.Get(*incoming.ReplyToID); ok {
			incoming.ReplyPreview = &types.ReplyPreview{
				AuthorLabel:   target.AuthorLabel,
				Content:       target.Content,
				HasAttachment: target.HasAttachment(),
			}
		}
	}

	// The viewer's own messages can arrive as push echoes of an in-flight
	// optimistic send. Promote the provisional entry instead of inserting a
	// duplicate, and never badge the viewer for their own message.
	if incoming.AuthorID == m.userID {
		if tempID, ok := m.store.ProvisionalMatching(incoming); ok {
			m.store.ApplyReplace(tempID, incoming)
		} else {
			m.store.ApplyInsert(incoming)
		}
		m.refreshViewport(wasAtBottom)
		return m, m.listenCmd()
	}

	m.store.ApplyInsert(incoming)

	switch {
	case replyToViewer && !wasAtBottom:
		m.notify.Signal(CategoryReply)
		m.refreshViewport(false)
		if err := sendDesktopNotification(incoming.AuthorLabel, incoming.Content); err != nil {
			m.logger.Printf("desktop notification: %v", err)
		}
	case !wasAtBottom:
		m.notify.Signal(CategoryMessage)
		m.refreshViewport(false)
	default:
		m.refreshViewport(true)
	}

	return m, m.listenCmd()
}
