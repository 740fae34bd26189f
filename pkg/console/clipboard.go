package console

import "github.com/atotto/clipboard"

// Clipboard supplies external copy/paste text. Hosts may substitute
// their own implementation (a game engine's clipboard, a test stub).
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// SystemClipboard is a Clipboard backed by the operating system
// clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
