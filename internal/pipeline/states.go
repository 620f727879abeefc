package pipeline

import "log/slog"

// transitions lists the legal next states for each run state. DONE and
// FAILED are terminal. CHECKPOINTING loops back to DISPATCHING once per
// remaining batch; RESUMING jumps straight to AGGREGATING when the latest
// snapshot already covers every paragraph.
var transitions = map[State][]State{
	StateInit:          {StateResuming, StateFailed},
	StateResuming:      {StateDispatching, StateAggregating, StateFailed},
	StateDispatching:   {StateCheckpointing, StateFailed},
	StateCheckpointing: {StateDispatching, StateAggregating, StateFailed},
	StateAggregating:   {StateDone, StateFailed},
	StateDone:          {},
	StateFailed:        {},
}

// CanTransition reports whether moving from one run state to another is
// legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a state has no successors.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// transition advances the run state. An illegal move means a pipeline bug,
// not a runtime condition, so it is logged loudly rather than failing the
// run mid-flight.
func transition(logger *slog.Logger, from, to State) State {
	if !CanTransition(from, to) {
		logger.Error("illegal state transition", "from", from, "to", to)
	}
	return to
}
