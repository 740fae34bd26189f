package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func (f *fakeCompletionInput) SetCaret(i int) { f.caret = i }

func (f *fakeCompletionInput) LastEntry() (string, bool) { return f.lastEntry, f.hasLast }

func (f *fakeCompletionInput) SetLastEntry(entry string) {
	f.lastEntry = entry
	f.hasLast = true
}

func newCompletionInterp(t *testing.T) *Interp {
	t.Helper()
	i := newTestInterp(t)
	require.NoError(t, i.AddVariable(context.Background(), "spawn_rate", 2, 0))
	require.NoError(t, i.AddVariable(context.Background(), "speed", 1, 0))
	return i
}

func TestInterp_Complete_CyclesThroughCandidates(t *testing.T) {
	i := newCompletionInterp(t)
	in := &fakeCompletionInput{text: "sp", caret: 2}

	i.Complete(in, true)
	assert.Equal(t, "spawn_rate", in.text)
	assert.Equal(t, 10, in.caret)

	i.Complete(in, true)
	assert.Equal(t, "speed", in.text, "second request should continue from the recorded stem")

	i.Complete(in, true)
	assert.Equal(t, "spawn_rate", in.text, "cycling should wrap around")
}

func TestInterp_Complete_Backward(t *testing.T) {
	i := newCompletionInterp(t)
	in := &fakeCompletionInput{text: "sp", caret: 2}

	i.Complete(in, false)
	assert.Equal(t, "speed", in.text, "backward completion should start from the last candidate")

	i.Complete(in, false)
	assert.Equal(t, "spawn_rate", in.text)
}

func TestInterp_Complete_KeepsTextAfterCaret(t *testing.T) {
	i := newCompletionInterp(t)
	in := &fakeCompletionInput{text: "sp + 1", caret: 2}

	i.Complete(in, true)

	assert.Equal(t, "spawn_rate + 1", in.text)
	assert.Equal(t, 10, in.caret, "caret should land at the end of the completed identifier")
}

func TestInterp_Complete_DottedMembers(t *testing.T) {
	i := newTestInterp(t)
	require.NoError(t, i.AddModule(context.Background(), "game", map[string]any{
		"spawn": Func(func(args []any) (any, error) { return nil, nil }),
	}, 0))

	in := &fakeCompletionInput{text: "game.s", caret: 6}
	i.Complete(in, true)

	assert.Equal(t, "game.spawn", in.text)
}

func TestInterp_Complete_EmptyStemDoesNothing(t *testing.T) {
	i := newCompletionInterp(t)
	in := &fakeCompletionInput{text: "", caret: 0}

	i.Complete(in, true)

	assert.Equal(t, "", in.text)
	assert.False(t, in.hasLast)
}

func TestInterp_Complete_NoCandidatesDoesNothing(t *testing.T) {
	i := newCompletionInterp(t)
	in := &fakeCompletionInput{text: "zzz", caret: 3}

	i.Complete(in, true)

	assert.Equal(t, "zzz", in.text)
}
