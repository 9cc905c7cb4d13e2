// Package saga runs a sequence of storage mutations that cannot share a
// transaction, undoing the completed ones in reverse order when a later
// step fails.
package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Outcome int

const (
	// Completed means every action succeeded.
	Completed Outcome = iota
	// RolledBack means an action failed and every compensation succeeded.
	RolledBack
	// Inconsistent means an action failed and at least one compensation
	// failed too. The side effects of those steps are still applied.
	Inconsistent
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case RolledBack:
		return "rolled_back"
	case Inconsistent:
		return "inconsistent"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Step pairs a mutation with the action that reverses it. Compensate may be
// nil for steps with nothing to undo.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e StepError) Unwrap() error {
	return e.Err
}

type Result struct {
	Outcome            Outcome
	FailedStep         string
	Err                error
	CompensationErrors []StepError
}

func (r Result) OK() bool {
	return r.Outcome == Completed
}

// Error summarises a failed run; nil when the run completed.
func (r Result) Error() error {
	if r.OK() {
		return nil
	}
	if len(r.CompensationErrors) == 0 {
		return fmt.Errorf("step %s failed: %w", r.FailedStep, r.Err)
	}
	msgs := make([]string, 0, len(r.CompensationErrors))
	for _, ce := range r.CompensationErrors {
		msgs = append(msgs, ce.Error())
	}
	return fmt.Errorf("step %s failed: %w (compensation failed: %s)", r.FailedStep, r.Err, strings.Join(msgs, "; "))
}

// Run executes steps in order and stops at the first failing action. The
// compensations of the steps that already succeeded then run newest first.
// A failing compensation is recorded and the remaining ones still run;
// nothing is retried.
func Run(ctx context.Context, steps ...Step) Result {
	for i, step := range steps {
		err := step.Action(ctx)
		if err == nil {
			continue
		}

		res := Result{Outcome: RolledBack, FailedStep: step.Name, Err: err}
		for j := i - 1; j >= 0; j-- {
			done := steps[j]
			if done.Compensate == nil {
				continue
			}
			// Compensate even when the caller's context is already done.
			if cerr := done.Compensate(context.WithoutCancel(ctx)); cerr != nil {
				res.CompensationErrors = append(res.CompensationErrors, StepError{Step: done.Name, Err: cerr})
			}
		}
		if len(res.CompensationErrors) > 0 {
			res.Outcome = Inconsistent
		}
		return res
	}
	return Result{Outcome: Completed}
}

// Failed reports whether the run stopped at the step called name.
func (r Result) Failed(name string) bool {
	return !r.OK() && r.FailedStep == name
}

// FailedWith reports whether the failing action's error matches target.
func (r Result) FailedWith(target error) bool {
	return errors.Is(r.Err, target)
}
