// Package overlay renders an in-game developer console as a Bubble Tea
// model: a toggleable box with a scrollback viewport on top and the
// editing line underneath, translating terminal key events into console
// events.
//
// The overlay owns no command state. The host builds a console.Input
// wired to an interpreter and an output.Buffer, then hands both over:
//
//	buf := output.NewBuffer(0)
//	in, _ := console.New(backend, buf)
//	model := overlay.New(in, buf)
//
// Interpreter output arrives on the buffer from the interpreter's
// goroutine; to repaint when that happens, forward the buffer's change
// notification into the program:
//
//	buf.OnChange(func() { program.Send(overlay.OutputMsg{}) })
package overlay

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/output"
)

const (
	// DefaultToggleKey opens and closes the console.
	DefaultToggleKey = "`"
	// DefaultPrompt prefixes the editing line.
	DefaultPrompt = "> "
	// DefaultTitle is drawn into the top border.
	DefaultTitle = "console"

	// blinkResolution is how often the caret blink state is advanced.
	blinkResolution = 100 * time.Millisecond

	// minBoxHeight keeps the console usable in tiny windows.
	minBoxHeight = 5
)

// OutputMsg tells the overlay that the output buffer changed. Hosts
// send it from the buffer's change callback.
type OutputMsg struct{}

type blinkTickMsg time.Time

// HintFunc returns a continuation of the given buffer contents, or ""
// when it has none. The overlay renders the part beyond the typed text
// dimmed, after the caret.
type HintFunc func(text string, caret int) string

// KeyMap holds the bindings the overlay consumes itself. Editing keys
// are not listed here; anything unmatched is translated and forwarded
// to the console core.
type KeyMap struct {
	Toggle      key.Binding
	Hide        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	ClearScreen key.Binding
}

// DefaultKeyMap returns the standard overlay bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:      key.NewBinding(key.WithKeys(DefaultToggleKey)),
		Hide:        key.NewBinding(key.WithKeys("esc")),
		PageUp:      key.NewBinding(key.WithKeys("pgup")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown")),
		ClearScreen: key.NewBinding(key.WithKeys("ctrl+l")),
	}
}

// Styles bundles the lipgloss styles the overlay renders with.
type Styles struct {
	Frame     lipgloss.Style
	Title     lipgloss.Style
	Output    lipgloss.Style
	Prompt    lipgloss.Style
	Text      lipgloss.Style
	Caret     lipgloss.Style
	Selection lipgloss.Style
	Hint      lipgloss.Style
}

// DefaultStyles returns the default console look: a dim frame around
// plain text, with a reverse-video caret.
func DefaultStyles() Styles {
	return Styles{
		Frame:     lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		Output:    lipgloss.NewStyle(),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Text:      lipgloss.NewStyle(),
		Caret:     lipgloss.NewStyle().Reverse(true),
		Selection: lipgloss.NewStyle().Background(lipgloss.Color("57")),
		Hint:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Model is the Bubble Tea model for the console overlay. It is a value
// type in the usual Bubble Tea manner; the editing core and the output
// buffer it points at are shared, stateful collaborators.
type Model struct {
	input *console.Input
	out   *output.Buffer

	viewport viewport.Model
	styles   Styles
	keys     KeyMap
	hint     HintFunc

	title      string
	prompt     string
	heightFrac float64

	visible bool
	width   int
	height  int

	lastBlink time.Time
}

// Option configures the overlay.
type Option func(*Model)

// WithStyles replaces the default styles.
func WithStyles(s Styles) Option {
	return func(m *Model) {
		m.styles = s
	}
}

// WithTitle sets the text drawn into the top border.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// WithPrompt sets the editing line prompt.
func WithPrompt(prompt string) Option {
	return func(m *Model) {
		m.prompt = prompt
	}
}

// WithKeyMap replaces the overlay-level bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) {
		m.keys = keys
	}
}

// WithToggleKey sets the key that opens and closes the console, in
// Bubble Tea's key naming ("`", "f1", "ctrl+`").
func WithToggleKey(k string) Option {
	return func(m *Model) {
		if k != "" {
			m.keys.Toggle = key.NewBinding(key.WithKeys(k))
		}
	}
}

// WithHint attaches an inline completion hint source, typically a
// command table's Hint method.
func WithHint(fn HintFunc) Option {
	return func(m *Model) {
		m.hint = fn
	}
}

// WithHeightFraction sets how much of the window the open console
// covers, in (0, 1].
func WithHeightFraction(f float64) Option {
	return func(m *Model) {
		if f > 0 && f <= 1 {
			m.heightFrac = f
		}
	}
}

// WithVisible sets whether the console starts open.
func WithVisible(visible bool) Option {
	return func(m *Model) {
		m.visible = visible
	}
}

// New builds an overlay around an editing core and the output buffer
// its interpreter writes to.
func New(in *console.Input, out *output.Buffer, opts ...Option) Model {
	m := Model{
		input:      in,
		out:        out,
		viewport:   viewport.New(0, 0),
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(),
		title:      DefaultTitle,
		prompt:     DefaultPrompt,
		heightFrac: 0.5,
		lastBlink:  time.Now(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.visible {
		return blinkTick()
	}
	return nil
}

// Visible reports whether the console is open.
func (m Model) Visible() bool {
	return m.visible
}

// Height returns the number of terminal rows the open console covers.
func (m Model) Height() int {
	if !m.visible {
		return 0
	}
	return m.boxHeight()
}

func (m Model) boxHeight() int {
	h := int(float64(m.height) * m.heightFrac)
	if h < minBoxHeight {
		h = minBoxHeight
	}
	if m.height > 0 && h > m.height {
		h = m.height
	}
	return h
}

// innerWidth is the content width between the side borders and their
// one-column padding.
func (m Model) innerWidth() int {
	return max(0, m.width-4)
}

func (m Model) viewportHeight() int {
	// Top border, input line, bottom border.
	return max(1, m.boxHeight()-3)
}

// inputRow is the screen row of the editing line, counted from the
// overlay's top edge.
func (m Model) inputRow() int {
	return 1 + m.viewportHeight()
}

func blinkTick() tea.Cmd {
	return tea.Tick(blinkResolution, func(t time.Time) tea.Msg {
		return blinkTickMsg(t)
	})
}

func (m Model) promptWidth() int {
	return uniseg.StringWidth(m.prompt)
}

// textWidth is the cell width left for the edit buffer once the
// prompt is drawn.
func (m Model) textWidth() int {
	return max(1, m.innerWidth()-m.promptWidth())
}
