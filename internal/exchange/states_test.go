package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidrs-dev/trueque/internal/exchange"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[exchange.Status][]exchange.Status{
		exchange.StatusPending:    {exchange.StatusConfirmed, exchange.StatusCancelled},
		exchange.StatusConfirmed:  {exchange.StatusInProgress, exchange.StatusCancelled},
		exchange.StatusInProgress: {exchange.StatusCompleted, exchange.StatusCancelled},
		exchange.StatusCompleted:  {},
		exchange.StatusCancelled:  {},
	}

	// Every (from, to) pair either appears in the table or is rejected.
	for _, from := range exchange.AllStatuses {
		for _, to := range exchange.AllStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, exchange.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionTable_SelfLoopsRejected(t *testing.T) {
	for _, s := range exchange.AllStatuses {
		assert.False(t, exchange.CanTransition(s, s), "%s -> %s must be rejected", s, s)
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, exchange.StatusCompleted.Terminal())
	assert.True(t, exchange.StatusCancelled.Terminal())
	assert.False(t, exchange.StatusPending.Terminal())

	assert.True(t, exchange.StatusPending.Active())
	assert.True(t, exchange.StatusConfirmed.Active())
	assert.True(t, exchange.StatusInProgress.Active())
	assert.False(t, exchange.StatusCompleted.Active())
	assert.False(t, exchange.StatusCancelled.Active())

	assert.False(t, exchange.ValidStatus(exchange.Status("rejected")))
	assert.False(t, exchange.ValidStatus(exchange.Status("")))
}

func TestAllowedTargets_Provider(t *testing.T) {
	cases := map[exchange.Status][]exchange.Status{
		exchange.StatusPending:    {exchange.StatusPending, exchange.StatusConfirmed, exchange.StatusCancelled},
		exchange.StatusConfirmed:  {exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCancelled},
		exchange.StatusInProgress: {exchange.StatusInProgress, exchange.StatusCompleted, exchange.StatusCancelled},
		exchange.StatusCompleted:  {exchange.StatusCompleted},
		exchange.StatusCancelled:  {exchange.StatusCancelled},
	}
	for current, want := range cases {
		assert.Equal(t, want, exchange.AllowedTargets(current, true), "provider viewing %s", current)
	}
}

func TestAllowedTargets_Requester(t *testing.T) {
	// The requester never sees forward states, only cancel while active.
	cases := map[exchange.Status][]exchange.Status{
		exchange.StatusPending:    {exchange.StatusPending, exchange.StatusCancelled},
		exchange.StatusConfirmed:  {exchange.StatusConfirmed, exchange.StatusCancelled},
		exchange.StatusInProgress: {exchange.StatusInProgress, exchange.StatusCancelled},
		exchange.StatusCompleted:  {exchange.StatusCompleted},
		exchange.StatusCancelled:  {exchange.StatusCancelled},
	}
	for current, want := range cases {
		assert.Equal(t, want, exchange.AllowedTargets(current, false), "requester viewing %s", current)
	}
}

func TestAllowedTargets_CanonicalOrder(t *testing.T) {
	// pending must sort before cancelled even though cancelled is added first.
	got := exchange.AllowedTargets(exchange.StatusPending, true)
	assert.Equal(t, []exchange.Status{
		exchange.StatusPending,
		exchange.StatusConfirmed,
		exchange.StatusCancelled,
	}, got)
}
