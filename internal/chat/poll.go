package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/parley/internal/cache"
	"github.com/adamavenir/parley/internal/types"
)

// pollInterval is how often the full refetch runs. Short on purpose: the
// poll is the authoritative reconciliation path and the only one that is
// guaranteed to run, so optimistic entries are confirmed within one tick.
const pollInterval = time.Second

// pollLimit bounds the refetch to the most recent messages.
const pollLimit = 100

type pollMsg struct {
	messages  []types.Message
	labels    map[string]string
	scheduled bool
}

type pollErrMsg struct {
	err       error
	scheduled bool
}

// pollCmd arms the next scheduled refetch.
func (m *Model) pollCmd() tea.Cmd {
	fetch := m.fetchSnapshotCmd(true)
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return fetch()
	})
}

// refreshNowCmd runs a refetch immediately, off the schedule. Used after a
// successful send so the provisional entry is promptly superseded. Its
// result is marked one-shot so it never re-arms the recurring tick; only
// the scheduled chain does that, keeping exactly one chain alive.
func (m *Model) refreshNowCmd() tea.Cmd {
	return m.fetchSnapshotCmd(false)
}

// fetchSnapshotCmd builds the closure that performs one full refetch:
// messages, the reaction sets for exactly those messages, and any author
// labels the session has not resolved yet. The label cache snapshot is
// captured here; newly resolved labels ride back on the pollMsg and merge
// into the session cache on the update loop.
func (m *Model) fetchSnapshotCmd(scheduled bool) func() tea.Msg {
	client := m.client
	known := make(map[string]string, len(m.labels))
	for id, label := range m.labels {
		known[id] = label
	}

	return func() tea.Msg {
		ctx := context.Background()
		messages, err := client.ListMessages(ctx, pollLimit)
		if err != nil {
			return pollErrMsg{err: err, scheduled: scheduled}
		}

		ids := make([]string, len(messages))
		for i, msg := range messages {
			ids[i] = msg.ID
		}
		reactions, err := client.ListReactions(ctx, ids)
		if err != nil {
			return pollErrMsg{err: err, scheduled: scheduled}
		}
		byMessage := make(map[string][]types.Reaction)
		for _, reaction := range reactions {
			byMessage[reaction.MessageID] = append(byMessage[reaction.MessageID], reaction)
		}

		resolved := make(map[string]string)
		labelFor := func(authorID, embedded string) string {
			if usableLabel(embedded) {
				return embedded
			}
			if label, ok := known[authorID]; ok {
				return label
			}
			if label, ok := resolved[authorID]; ok {
				return label
			}
			profile, err := client.GetProfile(ctx, authorID)
			if err != nil || profile.Email == "" {
				resolved[authorID] = "Unknown"
				return "Unknown"
			}
			resolved[authorID] = profile.Email
			return profile.Email
		}

		index := make(map[string]int, len(messages))
		for i := range messages {
			messages[i].AuthorLabel = labelFor(messages[i].AuthorID, messages[i].AuthorLabel)
			messages[i].Reactions = byMessage[messages[i].ID]
			index[messages[i].ID] = i
		}
		for i := range messages {
			if messages[i].ReplyToID == nil {
				continue
			}
			j, ok := index[*messages[i].ReplyToID]
			if !ok {
				continue
			}
			target := messages[j]
			messages[i].ReplyPreview = &types.ReplyPreview{
				AuthorLabel:   target.AuthorLabel,
				Content:       target.Content,
				HasAttachment: target.HasAttachment(),
			}
		}

		return pollMsg{messages: messages, labels: resolved, scheduled: scheduled}
	}
}

// handlePollMsg applies an authoritative snapshot: wholesale replace, with
// unconfirmed provisional entries carried over by the store.
func (m *Model) handlePollMsg(msg pollMsg) (tea.Model, tea.Cmd) {
	// A failed lookup yields "Unknown"; it stays out of the session cache so
	// the next fetch retries the profile.
	for id, label := range msg.labels {
		if !usableLabel(label) {
			continue
		}
		if _, ok := m.labels[id]; !ok {
			m.labels[id] = label
		}
	}

	wasAtBottom := m.read.AtBottom()
	m.store.ReplaceAll(msg.messages)
	m.refreshViewport(wasAtBottom)
	if m.read.Settled() {
		m.notify.ClearAll()
	}
	m.saveCache()

	if !msg.scheduled {
		return m, nil
	}
	return m, m.pollCmd()
}

// handlePollErr skips the update and retries on the next tick. Read-path
// failures never roll back existing state.
func (m *Model) handlePollErr(msg pollErrMsg) (tea.Model, tea.Cmd) {
	m.logger.Printf("poll: %v", msg.err)
	if !msg.scheduled {
		return m, nil
	}
	return m, m.pollCmd()
}

// seedFromCache loads the last confirmed snapshot so the view renders
// immediately. Failures are logged and ignored; the first poll replaces
// everything anyway.
func (m *Model) seedFromCache() {
	messages, err := cache.Load(m.cacheDB)
	if err != nil {
		m.logger.Printf("cache load: %v", err)
		return
	}
	m.store.ReplaceAll(messages)
	for _, msg := range messages {
		if usableLabel(msg.AuthorLabel) {
			m.labels[msg.AuthorID] = msg.AuthorLabel
		}
	}
}

func (m *Model) saveCache() {
	if m.cacheDB == nil {
		return
	}
	if err := cache.Save(m.cacheDB, m.store.Snapshot()); err != nil {
		m.logger.Printf("cache save: %v", err)
	}
}

// usableLabel reports whether an embedded author label can be trusted, as
// opposed to a placeholder that needs a profile lookup.
func usableLabel(label string) bool {
	return label != "" && label != "Unknown"
}
