package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stderr = termenv.NewOutput(os.Stderr)

	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	NOTICE = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("12")).
			String()
	}
	// HINT styles secondary text with dimmed appearance (e.g., "press ` to open the console")
	HINT = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("244")).
			String()
	}
)
