package script

import (
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/halfgrid/conch/pkg/console"
)

// Complete advances or rewinds the completion suggestion for the
// identifier under the caret, in place. Candidates come from a
// snapshot of the session's globals published by the worker, so
// completing never waits on a running command.
//
// The input's last entry carries the search stem between calls:
// repeated requests cycle through the stem's candidates instead of
// restarting from whatever the previous suggestion inserted.
func (i *Interp) Complete(in console.CompletionInput, forward bool) {
	runes := []rune(in.Text())
	caret := in.Caret()
	if caret > len(runes) {
		caret = len(runes)
	}
	if caret < 0 {
		caret = 0
	}

	start := caret
	for start > 0 && isIdentRune(runes[start-1]) {
		start--
	}
	word := string(runes[start:caret])

	stem := word
	if last, ok := in.LastEntry(); ok {
		stem = last
	}
	if stem == "" {
		return
	}

	candidates := i.completionCandidates(stem)
	if len(candidates) == 0 {
		return
	}

	idx := lo.IndexOf(candidates, word)
	switch {
	case idx < 0 && forward:
		idx = 0
	case idx < 0:
		idx = len(candidates) - 1
	case forward:
		idx = (idx + 1) % len(candidates)
	default:
		idx = (idx - 1 + len(candidates)) % len(candidates)
	}

	candidate := candidates[idx]
	in.SetText(string(runes[:start]) + candidate + string(runes[caret:]))
	in.SetCaret(start + len([]rune(candidate)))
	in.SetLastEntry(stem)
}

func (i *Interp) completionCandidates(stem string) []string {
	i.completionsMu.Lock()
	defer i.completionsMu.Unlock()

	var matches []string
	for _, name := range i.completions {
		if strings.HasPrefix(name, stem) {
			matches = append(matches, name)
		}
	}
	return matches
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
