package chat

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	textColor      = lipgloss.Color("252")
	blurText       = lipgloss.Color("244")
	metaColor      = lipgloss.Color("244")
	caretColor     = lipgloss.Color("205")
	inputBg        = lipgloss.Color("235")
	statusColor    = lipgloss.Color("244")
	errorColor     = lipgloss.Color("196")
	separatorColor = lipgloss.Color("240")
	selfColor      = lipgloss.Color("205")
	messageBarBg   = lipgloss.Color("24")
	replyBarBg     = lipgloss.Color("90")
	reactionPillBg = lipgloss.Color("236")
)

var authorPalette = []lipgloss.Color{
	lipgloss.Color("111"),
	lipgloss.Color("157"),
	lipgloss.Color("216"),
	lipgloss.Color("36"),
	lipgloss.Color("183"),
	lipgloss.Color("230"),
}

// colorForAuthor assigns a stable palette color per author id. The viewer's
// own messages use a fixed accent so they stand out from everyone else's.
func (m *Model) colorForAuthor(authorID string) lipgloss.Color {
	if authorID == m.userID {
		return selfColor
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(authorID))
	idx := int(h.Sum32()) % len(authorPalette)
	return authorPalette[idx]
}

func contrastTextColor(color lipgloss.Color) lipgloss.Color {
	code, ok := parseColorCode(color)
	if !ok {
		return lipgloss.Color("231")
	}
	r, g, b := colorCodeToRGB(code)
	luminance := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if luminance > 128 {
		return lipgloss.Color("16")
	}
	return lipgloss.Color("231")
}

func parseColorCode(color lipgloss.Color) (int, bool) {
	trimmed := strings.TrimSpace(string(color))
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func colorCodeToRGB(code int) (int, int, int) {
	if code < 16 {
		standard := [16][3]int{
			{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
			{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
			{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
			{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
		}
		values := standard[code]
		return values[0], values[1], values[2]
	}

	if code >= 16 && code <= 231 {
		index := code - 16
		r := index / 36
		g := (index % 36) / 6
		b := index % 6
		toRGB := func(value int) int {
			if value == 0 {
				return 0
			}
			return 55 + value*40
		}
		return toRGB(r), toRGB(g), toRGB(b)
	}

	if code >= 232 && code <= 255 {
		gray := 8 + (code-232)*10
		return gray, gray, gray
	}

	return 128, 128, 128
}
