package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halfgrid/conch/pkg/overlay"
)

// appModel composes the demo scene with the console overlay. The
// overlay sees every message; hidden, it reacts only to its toggle
// key, so the scene's own keys keep working until the console opens.
type appModel struct {
	scene   sceneModel
	console overlay.Model
}

func newApp(console overlay.Model, world *World, toggle string) appModel {
	return appModel{
		scene:   newScene(world, toggle),
		console: console,
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.scene.Init(), m.console.Init())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.console.Visible() {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.console, cmd = m.console.Update(msg)
	cmds = append(cmds, cmd)
	m.scene, cmd = m.scene.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View lays the open console over the top rows of the scene.
func (m appModel) View() string {
	scene := m.scene.View()
	if !m.console.Visible() {
		return scene
	}
	console := m.console.View()
	if console == "" {
		return scene
	}

	rows := strings.Split(scene, "\n")
	covered := m.console.Height()
	if covered >= len(rows) {
		return console
	}
	return console + "\n" + strings.Join(rows[covered:], "\n")
}
