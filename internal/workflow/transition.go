package workflow

import "fmt"

// TransitionFields describes the field changes a review verdict applies to
// a bead: a target workflow state plus additive and subtractive labels.
// Backends translate this into their update operation.
type TransitionFields struct {
	State        string
	AddLabels    []string
	RemoveLabels []string
}

// RejectBeadFields computes the rework transition for a rejected bead: the
// bead returns to the retake state, the verification stage tag is cleared,
// and the attempts counter is bumped. A bead carrying attempts:3 comes back
// with stage:retry and attempts:4.
func RejectBeadFields(wf *Descriptor, labels []string) TransitionFields {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	target := wf.RetakeState
	if target == "" {
		target = wf.InitialState
	}

	remove := []string{LabelStageVerification}
	for _, l := range labels {
		if l == LabelStageRetry {
			continue // re-added below
		}
		if len(l) > len(LabelAttemptsPrefix) && l[:len(LabelAttemptsPrefix)] == LabelAttemptsPrefix {
			remove = append(remove, l)
		}
	}

	return TransitionFields{
		State:        target,
		AddLabels:    []string{LabelStageRetry, AttemptLabel(AttemptCount(labels) + 1)},
		RemoveLabels: remove,
	}
}

// ApproveBeadFields computes the forward transition for an approved bead:
// from a review state to the queue state of the next step, or to the
// terminal state when no later step exists. Stage tags are cleared; the
// attempts history is kept.
func ApproveBeadFields(wf *Descriptor, state string) (TransitionFields, error) {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	ref := ResolveStep(state)
	if ref == nil {
		return TransitionFields{}, fmt.Errorf("state %q is not a pipeline step", state)
	}
	target := NextQueueState(wf, ref.Step)
	if target == "" {
		target = wf.ClosedState()
	}
	return TransitionFields{
		State:        target,
		RemoveLabels: []string{LabelStageVerification, LabelStageRetry},
	}, nil
}

// NextQueueState returns the first ready_for_* state that follows the given
// step's queue state in the workflow's state ordering, or "" when the step
// is the last one.
func NextQueueState(wf *Descriptor, step Step) string {
	queued := QueueStatePrefix + string(step)
	past := false
	for _, s := range wf.States {
		if s == queued {
			past = true
			continue
		}
		if past && len(s) > len(QueueStatePrefix) && s[:len(QueueStatePrefix)] == QueueStatePrefix {
			return s
		}
	}
	return ""
}
