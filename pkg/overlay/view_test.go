package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainOverlay renders without any styling so tests can assert on the
// raw frame text.
func plainOverlay(t *testing.T, width, height int) (Model, *fakeInterpreter) {
	t.Helper()

	m, interp, _ := newTestOverlay(t, WithStyles(Styles{}))
	m, _ = m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return openConsole(m), interp
}

func TestView_HiddenIsEmpty(t *testing.T) {
	m, _, _ := newTestOverlay(t)
	assert.Empty(t, m.View())
}

func TestView_FrameGeometry(t *testing.T) {
	m, _ := plainOverlay(t, 80, 24)

	lines := strings.Split(m.View(), "\n")
	require.Len(t, lines, 12)

	for i, line := range lines {
		assert.Equal(t, 80, uniseg.StringWidth(line), "row %d should span the window", i)
	}
	assert.True(t, strings.HasPrefix(lines[0], "╭─ console ─"))
	assert.True(t, strings.HasSuffix(lines[0], "╮"))
	assert.True(t, strings.HasPrefix(lines[11], "╰"))
	assert.True(t, strings.HasSuffix(lines[11], "╯"))
	for _, line := range lines[1:11] {
		assert.True(t, strings.HasPrefix(line, "│ "))
		assert.True(t, strings.HasSuffix(line, " │"))
	}
}

func TestView_ShowsPromptAndTypedText(t *testing.T) {
	m, _ := plainOverlay(t, 80, 24)
	m = typeString(m, "give sword")

	lines := strings.Split(m.View(), "\n")
	assert.Contains(t, lines[m.inputRow()], "> give sword")
}

func TestView_ShowsScrollbackAboveInput(t *testing.T) {
	m, interp := plainOverlay(t, 80, 24)
	interp.reply = "done\n"

	m = typeString(m, "teleport home")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(OutputMsg{})

	view := m.View()
	assert.Contains(t, view, "done")
	assert.Less(t, strings.Index(view, "done"), strings.Index(view, "> "),
		"output should render above the input line")
}

func TestView_LongLineStaysPinnedToCaret(t *testing.T) {
	m, _ := plainOverlay(t, 20, 10)
	m = typeString(m, "abcdefghijklmnopqrstuvwxyz")

	line := strings.Split(m.View(), "\n")[m.inputRow()]
	assert.Contains(t, line, "xyz", "tail around the caret should be visible")
	assert.NotContains(t, line, "abc", "overflowing head should scroll out")
}

func TestView_NewlineRendersAsPlaceholder(t *testing.T) {
	m, _ := plainOverlay(t, 80, 24)
	m = typeString(m, "if true then")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeString(m, "end")

	line := strings.Split(m.View(), "\n")[m.inputRow()]
	assert.Contains(t, line, "if true then↵end")
}

func TestView_InlineHintExtendsTypedText(t *testing.T) {
	hint := func(text string, caret int) string {
		if text == "sp" {
			return "spawn"
		}
		return ""
	}
	m, interp, _ := newTestOverlay(t, WithStyles(Styles{}), WithHint(hint))
	m = openConsole(m)
	m = typeString(m, "sp")

	line := strings.Split(m.View(), "\n")[m.inputRow()]
	assert.Contains(t, line, "> spawn", "the continuation renders after the typed stem")

	// The hint is display only; committing sends what was typed.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"sp"}, interp.commands)
}

func TestView_NoHintAwayFromLineEnd(t *testing.T) {
	hint := func(text string, caret int) string { return "spawn" }
	m, _, _ := newTestOverlay(t, WithStyles(Styles{}), WithHint(hint))
	m = openConsole(m)
	m = typeString(m, "sp")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})

	line := strings.Split(m.View(), "\n")[m.inputRow()]
	assert.NotContains(t, line, "spawn")
}

func TestInputWindowStart(t *testing.T) {
	runes := []rune("abcdefghij")

	tests := []struct {
		name  string
		caret int
		width int
		want  int
	}{
		{name: "fits entirely", caret: 10, width: 20, want: 0},
		{name: "caret at start", caret: 0, width: 4, want: 0},
		{name: "overflow pins caret to right edge", caret: 10, width: 4, want: 7},
		{name: "mid caret inside window", caret: 5, width: 8, want: 0},
		{name: "mid caret past window", caret: 8, width: 4, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inputWindowStart(runes, tt.caret, tt.width))
		})
	}
}

func TestInputWindowStart_WideRunes(t *testing.T) {
	runes := []rune("日本語のテスト")

	// Each rune is two cells plus one reserved for the caret, so a
	// seven-cell window shows the last three runes.
	assert.Equal(t, 4, inputWindowStart(runes, 7, 7))
}

func TestCellWidth(t *testing.T) {
	assert.Equal(t, 1, cellWidth('a'))
	assert.Equal(t, 2, cellWidth('語'))
	assert.Equal(t, 1, cellWidth('\n'))
	assert.Equal(t, 1, cellWidth('\t'))
}
