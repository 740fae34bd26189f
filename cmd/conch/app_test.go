package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/output"
	"github.com/halfgrid/conch/pkg/overlay"
)

func newTestApp(t *testing.T) appModel {
	t.Helper()
	buf := output.NewBuffer(0)
	in, err := console.New(console.NopInterpreter{}, buf)
	require.NoError(t, err)
	ov := overlay.New(in, buf, overlay.WithStyles(overlay.Styles{}))

	app := newApp(ov, newWorld(), "`")
	model, _ := app.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	return model.(appModel)
}

func pressKey(t *testing.T, app appModel, msg tea.KeyMsg) (appModel, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	return model.(appModel), cmd
}

func TestScene_ViewMatchesWindowGeometry(t *testing.T) {
	s := newScene(newWorld(), "`")
	s, _ = s.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	lines := strings.Split(s.View(), "\n")
	require.Len(t, lines, 12)
	for i, line := range lines {
		assert.LessOrEqual(t, ansi.PrintableRuneWidth(line), 40, "row %d overflows the window", i)
	}
}

func TestScene_ShowsEntitiesAndStatus(t *testing.T) {
	world := newWorld()
	world.Spawn("orc")
	s := newScene(world, "`")
	s, _ = s.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	view := s.View()
	assert.Contains(t, view, "@", "spawned entities appear on the field")
	assert.Contains(t, view, "1 entities")
	assert.Contains(t, view, "press ` for the console")
}

func TestScene_TickAdvancesAndReschedules(t *testing.T) {
	s := newScene(newWorld(), "`")
	s, _ = s.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	s, cmd := s.Update(sceneTickMsg(time.Now()))
	assert.Equal(t, 1, s.frame)
	assert.NotNil(t, cmd)
}

func TestApp_QuitKeysWorkWhileConsoleHidden(t *testing.T) {
	app := newTestApp(t)

	_, cmd := pressKey(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = pressKey(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_TypedQStaysInConsoleWhenOpen(t *testing.T) {
	app := newTestApp(t)
	app, _ = pressKey(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'`'}})
	require.True(t, app.console.Visible())

	app, cmd := pressKey(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Nil(t, cmd, "q must insert into the console, not quit")
	assert.True(t, app.console.Visible())
}

func TestApp_ConsoleOverlaysTopRows(t *testing.T) {
	app := newTestApp(t)

	closed := app.View()
	assert.NotContains(t, closed, "╭")
	require.Len(t, strings.Split(closed, "\n"), 12)

	app, cmd := pressKey(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'`'}})
	assert.NotNil(t, cmd, "opening the console starts the caret blink")

	lines := strings.Split(app.View(), "\n")
	require.Len(t, lines, 12)
	assert.True(t, strings.HasPrefix(lines[0], "╭"), "console frame covers the top rows")
	assert.Contains(t, lines[11], "q quits", "scene status row stays visible below the console")
}
