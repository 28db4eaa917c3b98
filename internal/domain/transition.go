package domain

import (
	"fmt"
	"slices"
	"time"
)

// TransitionRecord is one entry of an append-only status history. Seq starts
// at 1 and follows insertion order.
type TransitionRecord[S ~string] struct {
	Seq            int       `json:"seq"`
	PreviousStatus S         `json:"previous_status"`
	NewStatus      S         `json:"new_status"`
	OccurredAt     time.Time `json:"occurred_at"`
	Note           string    `json:"note"`
}

type (
	OrderStateTransition = TransitionRecord[OrderStatus]
	PaymentTransaction   = TransitionRecord[PaymentStatus]
)

func appendRecord[S ~string](history []TransitionRecord[S], from, to S, at time.Time, note string) []TransitionRecord[S] {
	return append(history, TransitionRecord[S]{
		Seq:            len(history) + 1,
		PreviousStatus: from,
		NewStatus:      to,
		OccurredAt:     at,
		Note:           note,
	})
}

// step resolves a single guarded transition. Being already at target is a
// no-op and returns target with an empty note.
func step[S ~string](entity string, current, target S, note, reason string, allowed ...S) (S, string, error) {
	if current == target {
		return current, "", nil
	}
	if !slices.Contains(allowed, current) {
		return current, "", NewInvalidStateTransitionError(entity, string(current), string(target), reason)
	}
	return target, note, nil
}

func unknownAction[S ~string](entity string, current S, action string) error {
	return NewInvalidStateTransitionError(entity, string(current), "", fmt.Sprintf("unknown action %q", action))
}

func cloneHistory[S ~string](history []TransitionRecord[S]) []TransitionRecord[S] {
	if history == nil {
		return nil
	}
	return slices.Clone(history)
}
