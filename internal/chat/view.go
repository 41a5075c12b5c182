package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/types"
)

const inputMaxHeight = 8
const inputPadding = 1

// shortIDLength is how many id characters render in footers and are accepted
// as command references.
const shortIDLength = 8

func (m *Model) View() string {
	statusLine := lipgloss.NewStyle().Foreground(statusColor).Render(m.statusLine())

	var lines []string
	lines = append(lines, m.viewport.View())
	if banners := m.renderBanners(); banners != "" {
		lines = append(lines, banners)
	}
	if replyPreview := m.renderReplyPreview(); replyPreview != "" {
		lines = append(lines, replyPreview)
	}
	if attachmentLine := m.renderPendingAttachment(); attachmentLine != "" {
		lines = append(lines, attachmentLine)
	}
	lines = append(lines, m.renderInput(), statusLine)

	output := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return m.zoneManager.Scan(output)
}

func (m *Model) mainWidth() int {
	return m.width
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	width := m.mainWidth()
	inputWidth := width - inputPadding
	if inputWidth < 1 {
		inputWidth = 1
	}
	m.input.SetWidth(inputWidth)
	lineCount := m.input.LineCount()
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > inputMaxHeight {
		lineCount = inputMaxHeight
	}
	m.input.SetHeight(lineCount)
	inputHeight := m.input.Height() + 2

	statusHeight := 1
	bannerHeight := 0
	if _, show := m.notify.Messages(); show {
		bannerHeight++
	}
	if _, show := m.notify.Replies(); show {
		bannerHeight++
	}
	extraHeight := 0
	if m.replyToID != "" {
		extraHeight++
	}
	if m.attachment != nil {
		extraHeight++
	}
	m.viewport.Width = width
	m.viewport.Height = m.height - inputHeight - statusHeight - bannerHeight - extraHeight
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.refreshViewport(m.read.AtBottom())
}

// renderBanners renders the jump-to-latest bars for messages that arrived
// while the viewer was scrolled up. The reply bar stacks below the message
// bar; each is an independent click target.
func (m *Model) renderBanners() string {
	width := m.mainWidth()
	var bars []string

	if count, show := m.notify.Messages(); show {
		text := fmt.Sprintf("%d new message%s · click to jump to latest", count, plural(count))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(messageBarBg).Padding(0, 1)
		if width > 0 {
			style = style.Width(width)
		}
		bars = append(bars, m.zoneManager.Mark("banner-messages", style.Render(text)))
	}
	if count, show := m.notify.Replies(); show {
		text := fmt.Sprintf("%d repl%s to you · click to jump to latest", count, pluralY(count))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(replyBarBg).Padding(0, 1)
		if width > 0 {
			style = style.Width(width)
		}
		bars = append(bars, m.zoneManager.Mark("banner-replies", style.Render(text)))
	}
	return strings.Join(bars, "\n")
}

func (m *Model) renderReplyPreview() string {
	if m.replyToID == "" {
		return ""
	}

	previewStyle := lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	cancelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	preview := previewStyle.Render("↪ replying to: " + truncateLine(m.replyToPreview, 80))
	cancel := m.zoneManager.Mark("reply-cancel", cancelStyle.Render(" [x]"))

	width := m.mainWidth()
	if width > 0 {
		padding := width - lipgloss.Width(preview) - lipgloss.Width(cancel)
		if padding > 0 {
			return preview + strings.Repeat(" ", padding) + cancel
		}
	}
	return preview + " " + cancel
}

func (m *Model) renderPendingAttachment() string {
	if m.attachment == nil {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	return style.Render(fmt.Sprintf("📎 %s attached · /detach to drop", m.attachment.Kind))
}

func (m *Model) renderInput() string {
	content := m.input.View()
	style := lipgloss.NewStyle().Background(inputBg).Padding(0, inputPadding, 0, 0)
	if width := m.mainWidth(); width > 0 {
		style = style.Width(width)
	}
	blank := style.Render("")
	return strings.Join([]string{blank, style.Render(content), blank}, "\n")
}

func (m *Model) statusLine() string {
	right := ""
	if m.input.Value() == "" {
		right = "/help for commands"
	}
	left := m.email
	if m.realtimeDown {
		left += " · live updates off"
	}
	if m.uploading {
		left += " · uploading…"
	}
	if m.status != "" {
		left = m.status + " · " + left
	}
	return alignStatusLine(left, right, m.mainWidth())
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	if leftWidth+rightWidth+1 > width {
		return left
	}
	spaces := width - leftWidth - rightWidth
	return left + strings.Repeat(" ", spaces) + right
}

func (m *Model) renderMessages() string {
	messages := m.store.Snapshot()
	chunks := make([]string, 0, len(messages))
	var lastDay string
	for _, msg := range messages {
		day := time.UnixMilli(msg.CreatedAt).Local().Format("Mon Jan 2 2006")
		if day != lastDay {
			chunks = append(chunks, m.renderDaySeparator(day))
			lastDay = day
		}
		chunks = append(chunks, m.formatMessage(msg))
	}
	return strings.Join(chunks, "\n\n")
}

func (m *Model) renderDaySeparator(day string) string {
	width := m.mainWidth()
	label := " " + day + " "
	style := lipgloss.NewStyle().Foreground(separatorColor)
	if width <= lipgloss.Width(label)+4 {
		return style.Render(label)
	}
	side := (width - lipgloss.Width(label)) / 2
	rule := strings.Repeat("─", side)
	return style.Render(rule + label + rule)
}

func (m *Model) formatMessage(msg types.Message) string {
	color := m.colorForAuthor(msg.AuthorID)
	label := m.displayLabel(msg)

	bylineText := renderByline(label, color)
	sender := m.zoneManager.Mark("byline-"+msg.ID, bylineText)

	width := m.mainWidth()
	body := msg.Content
	if width > 0 && body != "" {
		body = ansi.Wrap(body, width, "")
	}

	var lines []string
	if ctx := m.replyContext(msg); ctx != "" {
		lines = append(lines, ctx)
	}
	if body != "" {
		lines = append(lines, sender+"\n"+body)
	} else {
		lines = append(lines, sender)
	}
	if attachmentLine := renderAttachmentLine(msg); attachmentLine != "" {
		lines = append(lines, attachmentLine)
	}
	if reactionLine := m.formatReactionSummary(msg); reactionLine != "" {
		if width > 0 {
			reactionLine = ansi.Wrap(reactionLine, width, "")
		}
		lines = append(lines, reactionLine)
	}
	lines = append(lines, m.formatFooter(msg, color))
	return strings.Join(lines, "\n")
}

func (m *Model) displayLabel(msg types.Message) string {
	if label, ok := m.labels[msg.AuthorID]; ok && label != "" {
		return core.LabelName(label)
	}
	if msg.AuthorLabel != "" {
		return core.LabelName(msg.AuthorLabel)
	}
	return shortID(msg.AuthorID)
}

func renderByline(label string, color lipgloss.Color) string {
	content := fmt.Sprintf(" @%s ", label)
	style := lipgloss.NewStyle().Background(color).Foreground(contrastTextColor(color)).Bold(true)
	return style.Render(content)
}

// replyContext renders the quoted line above a reply. Targets missing from
// the current window render as a generic marker rather than nothing.
func (m *Model) replyContext(msg types.Message) string {
	if msg.ReplyToID == nil {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	if msg.ReplyPreview == nil {
		return style.Render("↪ earlier message")
	}
	preview := msg.ReplyPreview.Content
	if preview == "" && msg.ReplyPreview.HasAttachment {
		preview = "attachment"
	}
	line := fmt.Sprintf("↪ @%s: %s", core.LabelName(msg.ReplyPreview.AuthorLabel), truncateLine(preview, 60))
	return style.Render(line)
}

func renderAttachmentLine(msg types.Message) string {
	if !msg.HasAttachment() {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(metaColor)
	icon := "🖼"
	if msg.Kind() == types.AttachmentDocument {
		icon = "📄"
	}
	return style.Render(fmt.Sprintf("%s %s", icon, msg.AttachmentURL))
}

// formatReactionSummary renders reaction pills grouped by emoji, each pill a
// click target that toggles the viewer's reaction of that emoji.
func (m *Model) formatReactionSummary(msg types.Message) string {
	if len(msg.Reactions) == 0 {
		return ""
	}

	counts := map[string]int{}
	mine := map[string]bool{}
	order := []string{}
	for _, r := range msg.Reactions {
		if counts[r.Emoji] == 0 {
			order = append(order, r.Emoji)
		}
		counts[r.Emoji]++
		if r.UserID == m.userID {
			mine[r.Emoji] = true
		}
	}

	pillStyle := lipgloss.NewStyle().Background(reactionPillBg).Padding(0, 1)
	minePillStyle := pillStyle.Foreground(caretColor).Bold(true)
	treeBar := lipgloss.NewStyle().Foreground(separatorColor).Render("└─")

	pills := make([]string, 0, len(order))
	for _, emoji := range order {
		content := emoji
		if counts[emoji] > 1 {
			content = fmt.Sprintf("%s %d", emoji, counts[emoji])
		}
		style := pillStyle
		if mine[emoji] {
			style = minePillStyle
		}
		pill := style.Render(content)
		pills = append(pills, m.zoneManager.Mark("react-"+msg.ID+"-"+emoji, pill))
	}
	return treeBar + " " + strings.Join(pills, " ")
}

func (m *Model) formatFooter(msg types.Message, color lipgloss.Color) string {
	var parts []string
	if msg.Provisional() {
		parts = append(parts, "sending…")
	} else {
		parts = append(parts, "#"+shortID(msg.ID))
	}
	parts = append(parts, humanize.Time(time.UnixMilli(msg.CreatedAt)))
	if msg.Edited {
		parts = append(parts, "(edited)")
	}
	text := strings.Join(parts, " · ")
	styled := lipgloss.NewStyle().Foreground(color).Faint(true).Render(text)
	return m.zoneManager.Mark("footer-"+msg.ID, styled)
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func truncateLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
