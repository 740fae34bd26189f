package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sceneFrameInterval = 500 * time.Millisecond

var (
	sceneHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	sceneStarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	sceneEntityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	sceneStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type sceneTickMsg time.Time

// sceneModel draws the backdrop the console drops over: a field of
// twinkling stars with the world's entities plotted on it. It stands
// in for a host application's own frame.
type sceneModel struct {
	world  *World
	toggle string
	width  int
	height int
	frame  int
}

func newScene(world *World, toggle string) sceneModel {
	return sceneModel{world: world, toggle: toggle}
}

func (m sceneModel) Init() tea.Cmd {
	return m.tick()
}

func (m sceneModel) tick() tea.Cmd {
	return tea.Tick(sceneFrameInterval, func(t time.Time) tea.Msg {
		return sceneTickMsg(t)
	})
}

func (m sceneModel) Update(msg tea.Msg) (sceneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case sceneTickMsg:
		m.frame++
		return m, m.tick()
	}
	return m, nil
}

// View renders exactly the window height, one row per line, so the
// overlay can replace the top rows without seams.
func (m sceneModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	entities := m.world.Entities()
	fieldHeight := m.height - 2
	byRow := make(map[int][]int, len(entities))
	if fieldHeight > 0 {
		for _, e := range entities {
			y := mod(e.Y, fieldHeight)
			byRow[y] = append(byRow[y], mod(e.X, m.width))
		}
	}

	rows := make([]string, m.height)
	rows[0] = m.headerRow()
	for y := 0; y < fieldHeight; y++ {
		rows[1+y] = m.fieldRow(y, byRow[y])
	}
	if m.height > 1 {
		rows[m.height-1] = m.statusRow(len(entities))
	}
	return strings.Join(rows, "\n")
}

func (m sceneModel) headerRow() string {
	title := " conch demo"
	if len(title) > m.width {
		title = title[:m.width]
	}
	return sceneHeaderStyle.Render(title)
}

func (m sceneModel) fieldRow(y int, entityCols []int) string {
	cells := make([]rune, m.width)
	for x := range cells {
		cells[x] = ' '
		if (x*31+y*17+m.frame)%89 == 0 {
			cells[x] = '·'
		}
	}
	entity := make(map[int]bool, len(entityCols))
	for _, x := range entityCols {
		cells[x] = '@'
		entity[x] = true
	}

	var b strings.Builder
	for x, c := range cells {
		switch {
		case entity[x]:
			b.WriteString(sceneEntityStyle.Render("@"))
		case c != ' ':
			b.WriteString(sceneStarStyle.Render(string(c)))
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func (m sceneModel) statusRow(count int) string {
	status := fmt.Sprintf(" %d entities · press %s for the console · q quits", count, m.toggle)
	runes := []rune(status)
	if len(runes) > m.width {
		runes = runes[:m.width]
	}
	return sceneStatusStyle.Render(string(runes))
}

// mod wraps v into [0, n).
func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
