// Package workflow validates status transitions over the freight and service
// request lifecycles. Both are strictly linear chains with a cancellation
// exit from every non-terminal state.
package workflow

import (
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
)

type TransitionResult struct {
	Valid        bool
	Code         guard.Code
	Error        string
	ExpectedNext string
}

// Err converts an invalid result into an *guard.Error.
func (r TransitionResult) Err() error {
	if r.Valid {
		return nil
	}
	return &guard.Error{
		Kind:         guard.ErrInvalidTransition,
		Code:         r.Code,
		Message:      r.Error,
		ExpectedNext: r.ExpectedNext,
	}
}

// Result is the predicate form shared with the other guards.
func (r TransitionResult) Result() guard.Result {
	if r.Valid {
		return guard.Allow()
	}
	return guard.Deny(guard.ErrInvalidTransition, r.Code, r.Error)
}

type chain[S ~string] struct {
	order     []S
	cancelled S
	loc       *i18n.Guard
}

func (c chain[S]) index(s S) int {
	for i, candidate := range c.order {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (c chain[S]) known(s S) bool {
	return s == c.cancelled || c.index(s) >= 0
}

func (c chain[S]) terminal(s S) bool {
	return s == c.cancelled || (len(c.order) > 0 && s == c.order[len(c.order)-1])
}

func (c chain[S]) next(s S) (S, bool) {
	var zero S
	if c.terminal(s) {
		return zero, false
	}
	i := c.index(s)
	if i < 0 || i+1 >= len(c.order) {
		return zero, false
	}
	return c.order[i+1], true
}

func (c chain[S]) check(from, to S) TransitionResult {
	switch {
	case !c.known(from):
		return c.invalid(guard.CodeUnknownStatus, c.loc.Message(i18n.MsgUnknownStatus, c.label(from)), "")
	case !c.known(to):
		return c.invalid(guard.CodeUnknownStatus, c.loc.Message(i18n.MsgUnknownStatus, c.label(to)), "")
	case from == to:
		return TransitionResult{Valid: true}
	case c.terminal(from):
		return c.invalid(guard.CodeTerminal, c.loc.Message(i18n.MsgTerminal, c.label(from)), "")
	case to == c.cancelled:
		return TransitionResult{Valid: true}
	}

	fromIdx, toIdx := c.index(from), c.index(to)
	if toIdx < fromIdx {
		return c.invalid(guard.CodeBackward, c.loc.Message(i18n.MsgBackward, c.label(from), c.label(to)), "")
	}
	if toIdx == fromIdx+1 {
		return TransitionResult{Valid: true}
	}
	expected := c.order[fromIdx+1]
	return c.invalid(guard.CodeSkip, c.loc.Message(i18n.MsgSkip, c.label(from), c.label(expected)), string(expected))
}

func (c chain[S]) invalid(code guard.Code, msg, expectedNext string) TransitionResult {
	return TransitionResult{Code: code, Error: msg, ExpectedNext: expectedNext}
}

func (c chain[S]) label(s S) string {
	return c.loc.LabelForStatus(string(s))
}

// requireStatus is the shared "this action needs status X" predicate.
func requireStatus[S ~string](loc *i18n.Guard, current, required S) guard.Result {
	if current == required {
		return guard.Allow()
	}
	return guard.Deny(guard.ErrInvalidTransition, guard.CodeWrongState,
		loc.Message(i18n.MsgWrongState, loc.LabelForStatus(string(required)), loc.LabelForStatus(string(current))))
}
