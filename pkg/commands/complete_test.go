package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halfgrid/conch/pkg/console"
)

type fakeCompletionInput struct {
	text      string
	caret     int
	lastEntry string
	hasLast   bool
}

func (f *fakeCompletionInput) Text() string { return f.text }

func (f *fakeCompletionInput) SetText(text string) {
	f.text = text
	f.caret = len([]rune(text))
}

func (f *fakeCompletionInput) Caret() int { return f.caret }

func (f *fakeCompletionInput) SetCaret(pos int) { f.caret = pos }

func (f *fakeCompletionInput) LastEntry() (string, bool) { return f.lastEntry, f.hasLast }

func (f *fakeCompletionInput) SetLastEntry(entry string) {
	f.lastEntry = entry
	f.hasLast = true
}

func newCompletionTable(t *testing.T, names ...string) *Table {
	t.Helper()
	table := newTestTable(t)
	noop := func(context.Context, []string, console.Sink) error { return nil }
	for _, name := range names {
		require.NoError(t, table.Register(Command{Name: name, Handler: noop}))
	}
	return table
}

func TestTable_Complete_FuzzyMatchesCommandName(t *testing.T) {
	table := newCompletionTable(t, "spawn", "give", "teleport")
	in := &fakeCompletionInput{}
	in.SetText("spw")

	table.Complete(in, true)

	assert.Equal(t, "spawn", in.Text(), "subsequence matches complete, not just prefixes")
	assert.Equal(t, 5, in.Caret())
	assert.Equal(t, "spw", in.lastEntry, "the search stem carries over to the next call")
}

func TestTable_Complete_CyclesThroughCandidates(t *testing.T) {
	table := newCompletionTable(t, "spawn", "say", "stats")
	in := &fakeCompletionInput{}
	in.SetText("s")

	var seen []string
	for i := 0; i < 3; i++ {
		table.Complete(in, true)
		seen = append(seen, in.Text())
	}

	assert.ElementsMatch(t, []string{"spawn", "say", "stats"}, seen, "cycling must visit every candidate once")

	table.Complete(in, true)
	assert.Equal(t, seen[0], in.Text(), "a full cycle wraps back to the first candidate")
}

func TestTable_Complete_BackwardWalksCandidatesInReverse(t *testing.T) {
	table := newCompletionTable(t, "spawn", "say", "stats")

	forward := &fakeCompletionInput{}
	forward.SetText("s")
	table.Complete(forward, true)
	table.Complete(forward, true)
	second := forward.Text()

	in := &fakeCompletionInput{}
	in.SetText("s")
	table.Complete(in, true)
	table.Complete(in, true)
	table.Complete(in, false)
	table.Complete(in, false)

	assert.NotEqual(t, second, in.Text(), "two back steps must move past the second candidate")
}

func TestTable_Complete_OnlyCompletesFirstWord(t *testing.T) {
	table := newCompletionTable(t, "spawn", "give")
	in := &fakeCompletionInput{}
	in.SetText("spawn gi")

	table.Complete(in, true)

	assert.Equal(t, "spawn gi", in.Text(), "argument positions are not command names")
	assert.False(t, in.hasLast)
}

func TestTable_Complete_KeepsTextAfterCaret(t *testing.T) {
	table := newCompletionTable(t, "spawn", "give")
	in := &fakeCompletionInput{}
	in.SetText("sp orc")
	in.SetCaret(2)

	table.Complete(in, true)

	assert.Equal(t, "spawn orc", in.Text())
	assert.Equal(t, 5, in.Caret(), "the caret lands right after the completed name")
}

func TestTable_Complete_EmptyLineDoesNothing(t *testing.T) {
	table := newCompletionTable(t, "spawn")
	in := &fakeCompletionInput{}

	table.Complete(in, true)

	assert.Equal(t, "", in.Text())
	assert.False(t, in.hasLast)
}

func TestTable_Complete_NoCandidatesDoesNothing(t *testing.T) {
	table := newCompletionTable(t, "spawn")
	in := &fakeCompletionInput{}
	in.SetText("xyz")

	table.Complete(in, true)

	assert.Equal(t, "xyz", in.Text())
	assert.False(t, in.hasLast)
}

func TestTable_Hint(t *testing.T) {
	table := newCompletionTable(t, "spawn", "give", "teleport")

	tests := []struct {
		name  string
		text  string
		caret int
		want  string
	}{
		{name: "prefix of one command", text: "sp", caret: 2, want: "spawn"},
		{name: "full name has nothing to add", text: "spawn", caret: 5, want: ""},
		{name: "caret mid word", text: "sp", caret: 1, want: ""},
		{name: "past the first word", text: "spawn or", caret: 8, want: ""},
		{name: "empty line", text: "", caret: 0, want: ""},
		{name: "no match", text: "zz", caret: 2, want: ""},
		{name: "subsequence but not prefix", text: "spn", caret: 3, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Hint(tt.text, tt.caret))
		})
	}
}
