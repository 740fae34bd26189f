package console

import "fmt"

// Action names a non-literal editing or control operation derived from
// input. Literal text travels through the Insert action with the Op's
// Text field set.
type Action int

const (
	unknownAction Action = iota
	Insert
	MoveLeft
	MoveRight
	MoveWordLeft
	MoveWordRight
	MoveHome
	MoveEnd
	DeleteBack
	DeleteForward
	KillLineStart
	KillLineEnd
	KillWordBack
	KillWordForward
	Yank
	Copy
	Cut
	Paste
	SelectAll
	Execute
	CompleteNext
	CompletePrev
	Tab
	Newline
	HistoryBack
	HistoryForward
)

var actionNames = map[Action]string{
	Insert:          "insert",
	MoveLeft:        "move-left",
	MoveRight:       "move-right",
	MoveWordLeft:    "move-word-left",
	MoveWordRight:   "move-word-right",
	MoveHome:        "move-home",
	MoveEnd:         "move-end",
	DeleteBack:      "delete-back",
	DeleteForward:   "delete-forward",
	KillLineStart:   "kill-line-start",
	KillLineEnd:     "kill-line-end",
	KillWordBack:    "kill-word-back",
	KillWordForward: "kill-word-forward",
	Yank:            "yank",
	Copy:            "copy",
	Cut:             "cut",
	Paste:           "paste",
	SelectAll:       "select-all",
	Execute:         "execute",
	CompleteNext:    "complete-next",
	CompletePrev:    "complete-prev",
	Tab:             "tab",
	Newline:         "newline",
	HistoryBack:     "history-back",
	HistoryForward:  "history-forward",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ActionByName resolves a configuration action name ("move-left",
// "yank") to its Action. Insert is excluded: literal insertion is not
// addressable by name because it needs the text to insert.
func ActionByName(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name && a != Insert {
			return a, true
		}
	}
	return unknownAction, false
}

// Op is the classifier's verdict for one event: the action to perform,
// whether movement extends the selection, and the literal text for
// Insert.
type Op struct {
	Action Action
	Select bool
	Text   string
}

func (o Op) String() string {
	switch {
	case o.Action == Insert:
		return fmt.Sprintf("insert(%q)", o.Text)
	case o.Select:
		return o.Action.String() + "+select"
	default:
		return o.Action.String()
	}
}
