package console

import "time"

// DefaultBlinkInterval is the default caret blink half-period.
const DefaultBlinkInterval = 530 * time.Millisecond

// Caret tracks the insertion point and its blink phase. All moves
// clamp into [0, max]; none fail. Movement resets the blink phase so
// the caret is solid right after activity.
type Caret struct {
	index    int
	interval time.Duration
	elapsed  time.Duration
	hidden   bool
}

// Index returns the caret position.
func (c *Caret) Index() int {
	return c.index
}

// MoveTo places the caret at i, clamped into [0, max].
func (c *Caret) MoveTo(i, max int) {
	c.index = clamp(i, 0, max)
	c.wake()
}

// MoveBy shifts the caret by delta, clamped into [0, max].
func (c *Caret) MoveBy(delta, max int) {
	c.MoveTo(c.index+delta, max)
}

// Home places the caret at the start of the buffer.
func (c *Caret) Home() {
	c.MoveTo(0, 0)
}

// End places the caret past the last rune.
func (c *Caret) End(max int) {
	c.MoveTo(max, max)
}

// Clamp constrains the caret into [0, max] without resetting the
// blink phase. Called after buffer mutations that may have shortened
// the text under the caret.
func (c *Caret) Clamp(max int) {
	c.index = clamp(c.index, 0, max)
}

// Tick advances the blink timer by dt, toggling visibility each time
// a full interval elapses. With a non-positive interval the caret is
// always visible.
func (c *Caret) Tick(dt time.Duration) {
	if c.blinkInterval() <= 0 {
		c.hidden = false
		return
	}
	c.elapsed += dt
	for c.elapsed >= c.blinkInterval() {
		c.elapsed -= c.blinkInterval()
		c.hidden = !c.hidden
	}
}

// Visible reports whether the caret should currently be drawn.
func (c *Caret) Visible() bool {
	return !c.hidden
}

// SetBlinkInterval sets the blink half-period. Zero restores the
// default; negative disables blinking.
func (c *Caret) SetBlinkInterval(d time.Duration) {
	c.interval = d
	c.wake()
}

func (c *Caret) blinkInterval() time.Duration {
	if c.interval == 0 {
		return DefaultBlinkInterval
	}
	return c.interval
}

// wake resets the blink phase to visible.
func (c *Caret) wake() {
	c.elapsed = 0
	c.hidden = false
}
