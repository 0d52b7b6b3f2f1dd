package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingrea/sistema-obras/internal/gateway"
)

// ErrNotConfirmed is returned when a deletion runs without a confirmed prompt.
var ErrNotConfirmed = errors.New("lifecycle: deletion not confirmed")

// Phase is the step a Deletion is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfirming
	PhaseExecuting
)

// Target is the subject of a deletion.
type Target struct {
	Kind  gateway.Kind
	ID    string
	Label string
}

// Prompt is the question shown before deleting.
func (t Target) Prompt() string {
	switch t.Kind {
	case gateway.KindWork:
		return fmt.Sprintf("Delete work %q and all of its inspections?", t.Label)
	default:
		return "Delete this inspection?"
	}
}

// Deletion is the two-phase confirm-then-delete protocol for one screen.
type Deletion struct {
	phase  Phase
	target Target
}

func (d Deletion) Phase() Phase   { return d.phase }
func (d Deletion) Target() Target { return d.target }

// Request opens the prompt. It is ignored while a delete is executing.
func (d Deletion) Request(t Target) Deletion {
	if d.phase == PhaseExecuting {
		return d
	}
	return Deletion{phase: PhaseConfirming, target: t}
}

// Cancel closes the prompt without deleting.
func (d Deletion) Cancel() Deletion {
	if d.phase != PhaseConfirming {
		return d
	}
	return Deletion{}
}

// Confirm moves a pending prompt to Executing. ok is false when there was no
// prompt to confirm.
func (d Deletion) Confirm() (Deletion, bool) {
	if d.phase != PhaseConfirming {
		return d, false
	}
	d.phase = PhaseExecuting
	return d, true
}

// Finish returns the protocol to Idle once the delete call settles. The user
// must Request again after a failure.
func (d Deletion) Finish() Deletion {
	return Deletion{}
}

// Delete makes the single delete call for a confirmed deletion.
func Delete(ctx context.Context, gw gateway.Gateway, d Deletion) error {
	if d.phase != PhaseExecuting {
		return ErrNotConfirmed
	}
	t := d.target
	var err error
	switch t.Kind {
	case gateway.KindWork:
		err = gw.DeleteWork(ctx, t.ID)
	case gateway.KindInspection:
		err = gw.DeleteInspection(ctx, t.ID)
	default:
		return fmt.Errorf("lifecycle: cannot delete %q", t.Kind)
	}
	if err != nil {
		return fmt.Errorf("lifecycle: delete %s %s: %w", t.Kind, t.ID, err)
	}
	return nil
}
