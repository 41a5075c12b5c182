package chat

import tea "github.com/charmbracelet/bubbletea"

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.subscribeCmd())
}

func (m *Model) Close() {
	if m.realtime != nil {
		_ = m.realtime.Close()
	}
	if m.cacheDB != nil {
		m.saveCache()
		_ = m.cacheDB.Close()
	}
}
