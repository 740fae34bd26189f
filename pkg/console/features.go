package console

import "go.uber.org/zap"

// feature reacts to classified operations against the shared input
// state. Every operation is offered to every feature in registration
// order; each feature decides internally whether to act. Features own
// no state of their own: everything they touch lives on the Input.
type feature interface {
	handle(in *Input, op Op)
}

type movementFeature struct{}

func (movementFeature) handle(in *Input, op Op) {
	caret := in.caret.Index()
	switch op.Action {
	case MoveLeft:
		in.moveCaret(caret-1, op.Select)
	case MoveRight:
		in.moveCaret(caret+1, op.Select)
	case MoveWordLeft:
		in.moveCaret(in.buf.PrevWordIndex(caret), op.Select)
	case MoveWordRight:
		in.moveCaret(in.buf.NextWordIndex(caret), op.Select)
	case MoveHome:
		in.moveCaret(0, op.Select)
	case MoveEnd:
		in.moveCaret(in.buf.Len(), op.Select)
	case SelectAll:
		in.sel.Begin(0)
		in.caret.End(in.buf.Len())
	}
}

type deletionFeature struct{}

func (deletionFeature) handle(in *Input, op Op) {
	switch op.Action {
	case DeleteBack:
		if in.deleteSelection() {
			return
		}
		if caret := in.caret.Index(); caret > 0 {
			in.removeRange(caret-1, caret)
		}
	case DeleteForward:
		if in.deleteSelection() {
			return
		}
		if caret := in.caret.Index(); caret < in.buf.Len() {
			in.removeRange(caret, caret+1)
		}
	}
}

type insertionFeature struct{}

func (insertionFeature) handle(in *Input, op Op) {
	switch op.Action {
	case Insert:
		in.insertText(sanitizeText(op.Text))
	case Tab:
		in.insertText(in.tabText)
	case Newline:
		in.insertText(in.newlineText)
	}
}

type clipboardFeature struct{}

func (clipboardFeature) handle(in *Input, op Op) {
	switch op.Action {
	case Copy:
		if text, ok := in.SelectedText(); ok {
			if err := in.clip.Write(text); err != nil {
				in.logger.Debug("clipboard write failed", zap.Error(err))
			}
		}
	case Cut:
		text, ok := in.SelectedText()
		if !ok {
			return
		}
		if err := in.clip.Write(text); err != nil {
			in.logger.Debug("clipboard write failed", zap.Error(err))
		}
		start, end := in.sel.Range(in.caret.Index())
		in.killRange(start, end, killDirectionForward)
	case Paste:
		text, err := in.clip.Read()
		if err != nil {
			in.logger.Debug("clipboard read failed", zap.Error(err))
			return
		}
		in.insertText(sanitizeText(text))
	}
}

type killFeature struct{}

func (killFeature) handle(in *Input, op Op) {
	caret := in.caret.Index()
	switch op.Action {
	case KillLineStart:
		if start, end, ok := in.Selection(); ok {
			in.killRange(start, end, killDirectionBackward)
			return
		}
		in.killRange(0, caret, killDirectionBackward)
	case KillLineEnd:
		if start, end, ok := in.Selection(); ok {
			in.killRange(start, end, killDirectionForward)
			return
		}
		in.killRange(caret, in.buf.Len(), killDirectionForward)
	case KillWordBack:
		if start, end, ok := in.Selection(); ok {
			in.killRange(start, end, killDirectionBackward)
			return
		}
		in.killRange(in.buf.PrevWordIndex(caret), caret, killDirectionBackward)
	case KillWordForward:
		if start, end, ok := in.Selection(); ok {
			in.killRange(start, end, killDirectionForward)
			return
		}
		in.killRange(caret, in.buf.NextWordIndex(caret), killDirectionForward)
	case Yank:
		if top, ok := in.kills.Top(); ok {
			in.insertText(string(top))
		}
		in.kills.BreakSequence()
	default:
		in.kills.BreakSequence()
	}
}

type historyFeature struct{}

func (historyFeature) handle(in *Input, op Op) {
	switch op.Action {
	case HistoryBack:
		if entry, ok := in.hist.RecallBack(); ok {
			in.setRecalled(entry)
		}
	case HistoryForward:
		if entry, ok := in.hist.RecallForward(); ok {
			in.setRecalled(entry)
		}
	case Insert, Tab, Newline, DeleteBack, DeleteForward, Paste, Cut,
		KillLineStart, KillLineEnd, KillWordBack, KillWordForward, Yank,
		CompleteNext, CompletePrev:
		// Direct edits invalidate the recall position.
		in.hist.ResetCursor()
	}
}

type completionFeature struct{}

func (completionFeature) handle(in *Input, op Op) {
	switch op.Action {
	case CompleteNext:
		in.interp.Complete(in, true)
	case CompletePrev:
		in.interp.Complete(in, false)
	default:
		in.clearLastEntry()
	}
}

type executeFeature struct{}

func (executeFeature) handle(in *Input, op Op) {
	if op.Action != Execute {
		return
	}
	command := in.buf.String()
	in.clearLine()
	if !isBlank(command) {
		in.hist.Append(command)
	}
	in.logger.Debug("executing command", zap.String("command", command))
	in.interp.Execute(in.sink, command)
}
