// internal/service/order/domain/state.go
package domain

// State is the lifecycle status of an order.
type State string

const (
	StatePending            State = "PENDING"
	StateProcessing         State = "PROCESSING"
	StatePartiallyFulfilled State = "PARTIALLY_FULFILLED"
	StateFulfilled          State = "FULFILLED"
	StateCancelled          State = "CANCELLED"
	StateFailed             State = "FAILED"
)

var transitions = map[State][]State{
	StatePending:            {StateProcessing, StateCancelled},
	StateProcessing:         {StateFulfilled, StatePartiallyFulfilled, StateFailed, StateCancelled},
	StatePartiallyFulfilled: {StateCancelled},
	StateFulfilled:          nil,
	StateCancelled:          nil,
	StateFailed:             nil,
}

func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Cancellable reports whether a user may still cancel and be refunded.
func (s State) Cancellable() bool {
	switch s {
	case StateFulfilled, StateCancelled, StateFailed:
		return false
	}
	return s.CanTransitionTo(StateCancelled)
}
