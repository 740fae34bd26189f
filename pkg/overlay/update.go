package overlay

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"

	"github.com/halfgrid/conch/pkg/console"
)

// Update handles terminal events. When the console is hidden only the
// toggle key does anything; everything else passes through untouched.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshOutput()
		return m, nil

	case blinkTickMsg:
		t := time.Time(msg)
		dt := t.Sub(m.lastBlink)
		m.lastBlink = t
		if !m.visible {
			return m, nil
		}
		if dt > 0 {
			m.input.Tick(dt)
		}
		return m, blinkTick()

	case OutputMsg:
		m.refreshOutput()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !m.visible {
		if key.Matches(msg, m.keys.Toggle) {
			return m.open()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Hide):
		m.visible = false
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.ClearScreen):
		m.out.Clear()
		m.refreshOutput()
		return m, nil
	}

	// Bracketed paste arrives as one rune batch; it becomes a single
	// insert so the core can sanitize it and replace any selection.
	if msg.Type == tea.KeyRunes && msg.Paste {
		m.input.Apply(console.Op{Action: console.Insert, Text: string(msg.Runes)})
		return m, nil
	}

	evs, ok := translateKey(msg)
	if !ok {
		return m, nil
	}
	for _, ev := range evs {
		m.input.HandleEvent(ev)
	}
	return m, nil
}

func (m Model) open() (Model, tea.Cmd) {
	m.visible = true
	m.refreshOutput()
	m.viewport.GotoBottom()
	m.lastBlink = time.Now()
	return m, blinkTick()
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if !m.visible {
		return m
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.LineUp(3)
	case tea.MouseButtonWheelDown:
		m.viewport.LineDown(3)
	case tea.MouseButtonLeft:
		if msg.Y != m.inputRow() {
			return m
		}
		idx := m.caretIndexAt(msg.X)
		switch msg.Action {
		case tea.MouseActionPress:
			m.input.ClickAt(idx)
		case tea.MouseActionMotion:
			m.input.DragTo(idx)
		}
	}
	return m
}

// caretIndexAt maps a screen column on the input row to a rune index,
// accounting for the border, the prompt, and the horizontal window.
func (m Model) caretIndexAt(x int) int {
	runes := []rune(m.input.Text())
	start := inputWindowStart(runes, m.input.Caret(), m.textWidth())
	col := x - 2 - m.promptWidth()
	if col < 0 {
		return start
	}
	w := 0
	for i := start; i < len(runes); i++ {
		cw := cellWidth(runes[i])
		if w+cw > col {
			return i
		}
		w += cw
	}
	return len(runes)
}

func (m *Model) layout() {
	m.viewport.Width = m.innerWidth()
	m.viewport.Height = m.viewportHeight()
}

// refreshOutput reloads the viewport from the buffer. The view stays
// pinned to the newest line unless the user has scrolled up.
func (m *Model) refreshOutput() {
	stick := m.viewport.AtBottom()
	lines := lo.Map(m.out.Lines(), func(line string, _ int) string {
		return m.styles.Output.Render(line)
	})
	content := strings.Join(lines, "\n")
	if w := m.viewport.Width; w > 0 {
		content = wrap.String(content, w)
	}
	m.viewport.SetContent(content)
	if stick {
		m.viewport.GotoBottom()
	}
}
