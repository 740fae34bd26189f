package overlay

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/rivo/uniseg"
)

func (m Model) View() string {
	if !m.visible || m.width < 8 || m.height < minBoxHeight {
		return ""
	}
	inner := m.innerWidth()

	var b strings.Builder
	b.WriteString(m.topBorder(inner))
	b.WriteByte('\n')
	for _, line := range m.scrollbackLines() {
		b.WriteString(m.boxRow(line, inner))
		b.WriteByte('\n')
	}
	b.WriteString(m.boxRow(m.renderInputLine(), inner))
	b.WriteByte('\n')
	b.WriteString(m.bottomBorder(inner))
	return b.String()
}

func (m Model) scrollbackLines() []string {
	lines := strings.Split(m.viewport.View(), "\n")
	for len(lines) < m.viewportHeight() {
		lines = append(lines, "")
	}
	return lines[:m.viewportHeight()]
}

func (m Model) topBorder(inner int) string {
	title := " " + m.title + " "
	tw := uniseg.StringWidth(title)
	rest := inner + 1 - tw
	if rest < 0 {
		title, tw, rest = "", 0, inner+1
	}
	var b strings.Builder
	b.WriteString(m.styles.Frame.Render("╭─"))
	if title != "" {
		b.WriteString(m.styles.Title.Render(title))
	}
	b.WriteString(m.styles.Frame.Render(strings.Repeat("─", rest) + "╮"))
	return b.String()
}

func (m Model) bottomBorder(inner int) string {
	return m.styles.Frame.Render("╰" + strings.Repeat("─", inner+2) + "╯")
}

// boxRow frames one content line between the side borders, padded out
// to the inner width.
func (m Model) boxRow(content string, inner int) string {
	if ansi.PrintableRuneWidth(content) > inner {
		content = truncate.String(content, uint(inner))
	}
	pad := inner - ansi.PrintableRuneWidth(content)
	var b strings.Builder
	b.WriteString(m.styles.Frame.Render("│"))
	b.WriteByte(' ')
	b.WriteString(content)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteByte(' ')
	b.WriteString(m.styles.Frame.Render("│"))
	return b.String()
}

const (
	cellPlain = iota
	cellSelected
	cellCaret
)

// renderInputLine draws the prompt and the visible slice of the edit
// buffer, with the caret cell in reverse video while the blink phase
// has it on. Adjacent cells with the same styling render as one run.
func (m Model) renderInputLine() string {
	runes := []rune(m.input.Text())
	caret := m.input.Caret()
	caretOn := m.input.CaretVisible()
	selStart, selEnd, hasSel := m.input.Selection()
	width := m.textWidth()
	start := inputWindowStart(runes, caret, width)

	var out strings.Builder
	out.WriteString(m.styles.Prompt.Render(m.prompt))

	var run strings.Builder
	runClass := cellPlain
	flush := func() {
		if run.Len() == 0 {
			return
		}
		text := run.String()
		run.Reset()
		switch runClass {
		case cellCaret:
			out.WriteString(m.styles.Caret.Render(text))
		case cellSelected:
			out.WriteString(m.styles.Selection.Render(text))
		default:
			out.WriteString(m.styles.Text.Render(text))
		}
	}

	used := 0
	for i := start; i < len(runes); i++ {
		w := cellWidth(runes[i])
		if used+w > width {
			break
		}
		class := cellPlain
		switch {
		case caretOn && i == caret:
			class = cellCaret
		case hasSel && i >= selStart && i < selEnd:
			class = cellSelected
		}
		if class != runClass {
			flush()
			runClass = class
		}
		run.WriteString(cellString(runes[i]))
		used += w
	}
	flush()

	if caret >= len(runes) {
		hint := []rune(m.hintSuffix(string(runes), caret))
		caretDrawn := false
		for i, r := range hint {
			w := cellWidth(r)
			if used+w > width {
				break
			}
			style := m.styles.Hint
			if i == 0 && caretOn {
				style = m.styles.Caret
				caretDrawn = true
			}
			out.WriteString(style.Render(cellString(r)))
			used += w
		}
		if !caretDrawn && caretOn && used < width {
			out.WriteString(m.styles.Caret.Render(" "))
		}
	}
	return out.String()
}

// hintSuffix returns the dimmed continuation drawn after the caret
// when the completion hint extends the typed text.
func (m Model) hintSuffix(text string, caret int) string {
	if m.hint == nil || text == "" {
		return ""
	}
	full := m.hint(text, caret)
	if full == text || !strings.HasPrefix(full, text) {
		return ""
	}
	return full[len(text):]
}

// inputWindowStart picks the first visible rune so the caret stays
// inside a window of the given cell width, pinned to the right edge
// when the line overflows.
func inputWindowStart(runes []rune, caret, width int) int {
	if caret > len(runes) {
		caret = len(runes)
	}
	w := 1
	start := caret
	for start > 0 {
		cw := cellWidth(runes[start-1])
		if w+cw > width {
			break
		}
		w += cw
		start--
	}
	return start
}

// cellWidth is the display width of one rune on the input row.
// Newlines and tabs draw as single-cell placeholders.
func cellWidth(r rune) int {
	switch r {
	case '\n', '\t':
		return 1
	}
	return runewidth.RuneWidth(r)
}

func cellString(r rune) string {
	switch r {
	case '\n':
		return "↵"
	case '\t':
		return " "
	}
	return string(r)
}
