package view

import (
	"context"
	"errors"
	"strings"
)

// ErrNothingToCommit is returned when the edit buffer is empty or does not
// differ from the confirmed prompt.
var ErrNothingToCommit = errors.New("prompt unchanged")

// EditMode is the state of the prompt editor.
type EditMode int

const (
	Viewing EditMode = iota
	Editing
)

// PromptEditor is the viewing/editing state machine for an agent's
// behavior prompt.
type PromptEditor struct {
	Mode    EditMode
	Current string // last prompt confirmed by the backend
	Buffer  string
}

// NewPromptEditor returns an editor in viewing mode.
func NewPromptEditor(current string) *PromptEditor {
	return &PromptEditor{Mode: Viewing, Current: current}
}

// Edit enters editing mode, seeding the buffer from the current prompt.
func (e *PromptEditor) Edit() {
	e.Mode = Editing
	e.Buffer = e.Current
}

// SetBuffer replaces the buffer contents. It enters editing mode if needed
// without reseeding.
func (e *PromptEditor) SetBuffer(s string) {
	e.Mode = Editing
	e.Buffer = s
}

// CanCommit reports whether the buffer holds a non-empty prompt that
// differs from the current one once surrounding whitespace is ignored.
func (e *PromptEditor) CanCommit() bool {
	next := strings.TrimSpace(e.Buffer)
	return e.Mode == Editing && next != "" && next != strings.TrimSpace(e.Current)
}

// Commit saves the trimmed buffer. On success the prompt becomes current
// and the editor returns to viewing; on failure it stays in editing with
// the buffer intact.
func (e *PromptEditor) Commit(ctx context.Context, save func(ctx context.Context, prompt string) error) error {
	if !e.CanCommit() {
		return ErrNothingToCommit
	}
	next := strings.TrimSpace(e.Buffer)
	if err := save(ctx, next); err != nil {
		return err
	}
	e.Current = next
	e.Buffer = ""
	e.Mode = Viewing
	return nil
}

// Cancel discards the buffer and returns to viewing.
func (e *PromptEditor) Cancel() {
	e.Buffer = ""
	e.Mode = Viewing
}
