package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	all := []State{StatePending, StateProcessing, StatePartiallyFulfilled, StateFulfilled, StateCancelled, StateFailed}
	allowed := map[State][]State{
		StatePending:            {StateProcessing, StateCancelled},
		StateProcessing:         {StateFulfilled, StatePartiallyFulfilled, StateFailed, StateCancelled},
		StatePartiallyFulfilled: {StateCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			require.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	require.True(t, StateFulfilled.IsTerminal())
	require.True(t, StateCancelled.IsTerminal())
	require.True(t, StateFailed.IsTerminal())
	require.False(t, StatePartiallyFulfilled.IsTerminal())
	require.False(t, State("SHIPPED").Valid())
}

func TestTransitionToRejectsInvalidMove(t *testing.T) {
	now := time.Now()
	o := NewOrder("o1", "u1", []OrderItem{{TotalPrice: 100, FulfilledPrice: 100, FulfilledQuantity: 1, RequestedQuantity: 1}}, nil, now)

	err := o.TransitionTo(StateFulfilled, now)
	require.True(t, errors.Is(err, ErrInvalidStatusTransition))
	require.Equal(t, StatePending, o.Status)

	require.NoError(t, o.TransitionTo(StateProcessing, now))
	require.NoError(t, o.TransitionTo(StateFulfilled, now))
	require.True(t, errors.Is(o.TransitionTo(StateCancelled, now), ErrInvalidStatusTransition))
}

func TestCancellable(t *testing.T) {
	require.True(t, StatePending.Cancellable())
	require.True(t, StateProcessing.Cancellable())
	require.True(t, StatePartiallyFulfilled.Cancellable())
	require.False(t, StateFulfilled.Cancellable())
	require.False(t, StateCancelled.Cancellable())
	require.False(t, StateFailed.Cancellable())
}
