package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// atBottomThreshold is how many lines from the true bottom still count as
// "at bottom". The terminal analog of a few pixels of slack.
const atBottomThreshold = 3

// scrollSettleDelay is how long after the last scroll event the viewer is
// considered to have stopped scrolling. Badges only auto-clear once the
// viewer is at the bottom and settled, so a momentary pass over the bottom
// mid-gesture does not wipe them.
const scrollSettleDelay = 1500 * time.Millisecond

// ReadPosition tracks whether the viewer is at the bottom of the message
// region and whether they are actively scrolling. The at-bottom flag is
// readable immediately, without waiting for a render pass, because ingest
// decides badge-vs-autoscroll before mutating the store.
type ReadPosition struct {
	atBottom    bool
	scrolling   bool
	settleToken int
}

// NewReadPosition starts at the bottom: an empty room has nothing to scroll.
func NewReadPosition() ReadPosition {
	return ReadPosition{atBottom: true}
}

// Observe recomputes the at-bottom flag from scroll geometry.
func (r *ReadPosition) Observe(yOffset, contentHeight, viewHeight int) {
	if viewHeight <= 0 || contentHeight <= viewHeight {
		r.atBottom = true
		return
	}
	r.atBottom = contentHeight-yOffset-viewHeight < atBottomThreshold
}

// AtBottom reports the last-observed position.
func (r *ReadPosition) AtBottom() bool {
	return r.atBottom
}

// Settled reports that the viewer is at the bottom and no longer scrolling.
func (r *ReadPosition) Settled() bool {
	return r.atBottom && !r.scrolling
}

// OnScroll marks the viewer as actively scrolling and returns the token the
// matching settle tick must carry. A newer scroll event invalidates older
// tokens, which is how the debounce restarts.
func (r *ReadPosition) OnScroll() int {
	r.scrolling = true
	r.settleToken++
	return r.settleToken
}

// Settle completes the debounce for the given token. Stale tokens (a newer
// scroll happened since) are ignored.
func (r *ReadPosition) Settle(token int) bool {
	if token != r.settleToken {
		return false
	}
	r.scrolling = false
	return true
}

type scrollSettleMsg struct {
	token int
}

// observeScroll refreshes the read position from the viewport and arms the
// settle timer.
func (m *Model) observeScroll() tea.Cmd {
	m.read.Observe(m.viewport.YOffset, m.viewport.TotalLineCount(), m.viewport.Height)
	token := m.read.OnScroll()
	return tea.Tick(scrollSettleDelay, func(time.Time) tea.Msg {
		return scrollSettleMsg{token: token}
	})
}

func (m *Model) handleScrollSettle(msg scrollSettleMsg) (tea.Model, tea.Cmd) {
	if !m.read.Settle(msg.token) {
		return m, nil
	}
	if m.read.AtBottom() {
		m.notify.ClearAll()
	}
	return m, nil
}

// scrollToLatest jumps the viewport to the newest message and clears both
// badge categories.
func (m *Model) scrollToLatest() {
	m.jumpToLatest()
	m.notify.ClearAll()
}

// jumpToLatest moves the viewport to the newest message without touching
// the badges. Banner clicks use it so dismissal stays per category.
func (m *Model) jumpToLatest() {
	m.viewport.GotoBottom()
	m.read.Observe(m.viewport.YOffset, m.viewport.TotalLineCount(), m.viewport.Height)
}

// refreshViewport re-renders the message region. When scrollToBottom is set,
// or the viewer was already at the bottom, the view follows the newest
// message; otherwise the current offset is preserved.
func (m *Model) refreshViewport(scrollToBottom bool) {
	m.viewport.SetContent(m.renderMessages())
	if scrollToBottom {
		m.viewport.GotoBottom()
	} else if maxOffset := m.viewport.TotalLineCount() - m.viewport.Height; maxOffset >= 0 && m.viewport.YOffset > maxOffset {
		m.viewport.SetYOffset(maxOffset)
	}
	m.read.Observe(m.viewport.YOffset, m.viewport.TotalLineCount(), m.viewport.Height)
}
