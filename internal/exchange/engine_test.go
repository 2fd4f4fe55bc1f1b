package exchange_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidrs-dev/trueque/internal/exchange"
)

const (
	rosa  = "user-rosa"  // requester
	marco = "user-marco" // provider
	elena = "user-elena" // uninvolved third member

	marcoService = "svc-marco" // costs 3 credits/hour, owned by marco
	rosaService  = "svc-rosa"  // rosa's counter-offer listing
)

func newTestEngine(t *testing.T) (*exchange.Engine, *exchange.MemoryStore) {
	t.Helper()
	store := exchange.NewMemoryStore()
	store.PutService(exchange.Service{
		ID:             marcoService,
		OwnerID:        marco,
		Title:          "Acompañamiento médico",
		Description:    "Acompañar a consulta y ayudar con trámites.",
		CreditsPerHour: 3,
	})
	store.PutService(exchange.Service{
		ID:             rosaService,
		OwnerID:        rosa,
		Title:          "Clases de celular",
		Description:    "Ayuda para WhatsApp, videollamadas y fotos.",
		CreditsPerHour: 2,
	})
	store.SetBalance(rosa, 10)
	store.SetBalance(marco, 10)
	return exchange.NewEngine(store), store
}

func createExchange(t *testing.T, e *exchange.Engine, counter *string) *exchange.Exchange {
	t.Helper()
	ex, err := e.CreateExchange(context.Background(), exchange.CreateExchangeInput{
		RequesterID:        rosa,
		RequestedServiceID: marcoService,
		CounterServiceID:   counter,
	})
	require.NoError(t, err)
	require.Equal(t, exchange.StatusPending, ex.Status)
	return ex
}

func advance(t *testing.T, e *exchange.Engine, exchangeID, actorID string, targets ...exchange.Status) {
	t.Helper()
	for _, target := range targets {
		require.NoError(t, e.RequestTransition(context.Background(), exchangeID, actorID, target))
	}
}

func balance(t *testing.T, e *exchange.Engine, userID string) int64 {
	t.Helper()
	b, err := e.BalanceOf(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func counterService() *string {
	s := rosaService
	return &s
}

func TestCreateExchange_ProviderDerivedFromService(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	assert.Equal(t, rosa, ex.RequesterID)
	assert.Equal(t, marco, ex.ProviderID)
	assert.Equal(t, exchange.SettlementCredits, ex.Settlement())
}

func TestCreateExchange_SelfRequestRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.CreateExchange(context.Background(), exchange.CreateExchangeInput{
		RequesterID:        marco,
		RequestedServiceID: marcoService,
	})
	assert.ErrorIs(t, err, exchange.ErrSelfRequest)
}

func TestCreateExchange_UnknownServiceRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.CreateExchange(context.Background(), exchange.CreateExchangeInput{
		RequesterID:        rosa,
		RequestedServiceID: "svc-nope",
	})
	assert.ErrorIs(t, err, exchange.ErrInvalidService)
}

func TestCreateExchange_CounterServiceMustBelongToRequester(t *testing.T) {
	e, store := newTestEngine(t)
	store.PutService(exchange.Service{ID: "svc-elena", OwnerID: elena, CreditsPerHour: 1})

	counter := "svc-elena"
	_, err := e.CreateExchange(context.Background(), exchange.CreateExchangeInput{
		RequesterID:        rosa,
		RequestedServiceID: marcoService,
		CounterServiceID:   &counter,
	})
	assert.ErrorIs(t, err, exchange.ErrInvalidService)
}

func TestCreateExchange_DuplicateActiveRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	createExchange(t, e, nil)

	_, err := e.CreateExchange(context.Background(), exchange.CreateExchangeInput{
		RequesterID:        rosa,
		RequestedServiceID: marcoService,
	})
	assert.ErrorIs(t, err, exchange.ErrDuplicateActive)
}

func TestCreateExchange_AllowedAgainAfterCancellation(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, rosa, exchange.StatusCancelled)

	// The triple is free again once the first exchange left its active state.
	createExchange(t, e, nil)
}

func TestTransition_FullLifecycle_CreditSettlement(t *testing.T) {
	// Scenario: rosa (10 credits) requests marco's 3-credit service, no
	// counter-offer. Marco walks it to completed.
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)

	got, err := e.AllowedTargetsFor(context.Background(), ex.ID, marco)
	require.NoError(t, err)
	assert.Equal(t, []exchange.Status{exchange.StatusCompleted}, got)

	assert.Equal(t, int64(7), balance(t, e, rosa))
	assert.Equal(t, int64(13), balance(t, e, marco))
}

func TestTransition_InsufficientFunds_NothingMoves(t *testing.T) {
	// Scenario: rosa only has 2 credits against a cost of 3. The completion
	// attempt must leave both balances and the status untouched.
	e, store := newTestEngine(t)
	store.SetBalance(rosa, 2)
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, marco, exchange.StatusConfirmed, exchange.StatusInProgress)

	err := e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusCompleted)
	assert.ErrorIs(t, err, exchange.ErrInsufficientFunds)

	var ife *exchange.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(2), ife.Balance)
	assert.Equal(t, int64(3), ife.Cost)

	current, err := store.ExchangeByID(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusInProgress, current.Status)
	assert.Equal(t, int64(2), balance(t, e, rosa))
	assert.Equal(t, int64(10), balance(t, e, marco))
}

func TestTransition_BarterCompletion_NoBalanceChange(t *testing.T) {
	// Scenario: a counter-service is attached, so completion is barter and
	// the ledger stays untouched.
	e, store := newTestEngine(t)
	ex := createExchange(t, e, counterService())
	require.Equal(t, exchange.SettlementBarter, ex.Settlement())

	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)

	current, err := store.ExchangeByID(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusCompleted, current.Status)
	assert.Equal(t, int64(10), balance(t, e, rosa))
	assert.Equal(t, int64(10), balance(t, e, marco))
}

func TestTransition_BarterWithEmptyFunds_StillCompletes(t *testing.T) {
	e, store := newTestEngine(t)
	store.SetBalance(rosa, 0)
	ex := createExchange(t, e, counterService())

	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)
	assert.Equal(t, int64(0), balance(t, e, rosa))
}

func TestTransition_SkippingStatesRejected(t *testing.T) {
	e, store := newTestEngine(t)
	ex := createExchange(t, e, nil)

	// pending -> in_progress and pending -> completed skip steps.
	err := e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusInProgress)
	assert.ErrorIs(t, err, exchange.ErrIllegalTransition)
	err = e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusCompleted)
	assert.ErrorIs(t, err, exchange.ErrIllegalTransition)

	current, err := store.ExchangeByID(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusPending, current.Status)
}

func TestTransition_RequesterCannotDriveForward(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	err := e.RequestTransition(context.Background(), ex.ID, rosa, exchange.StatusConfirmed)
	assert.ErrorIs(t, err, exchange.ErrNotAuthorized)
}

func TestTransition_EitherParticipantMayCancel(t *testing.T) {
	e, _ := newTestEngine(t)

	ex := createExchange(t, e, nil)
	require.NoError(t, e.RequestTransition(context.Background(), ex.ID, rosa, exchange.StatusCancelled))

	ex = createExchange(t, e, nil)
	advance(t, e, ex.ID, marco, exchange.StatusConfirmed)
	require.NoError(t, e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusCancelled))
}

func TestTransition_CancelAfterTerminalRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)

	err := e.RequestTransition(context.Background(), ex.ID, rosa, exchange.StatusCancelled)
	assert.ErrorIs(t, err, exchange.ErrIllegalTransition)
}

func TestTransition_SameStatusIsReportedNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	err := e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusPending)
	assert.ErrorIs(t, err, exchange.ErrSameStatus)

	// Nothing moved, in particular no credits.
	assert.Equal(t, int64(10), balance(t, e, rosa))
	assert.Equal(t, int64(10), balance(t, e, marco))
}

func TestTransition_OutsiderLooksLikeMissingExchange(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	err := e.RequestTransition(context.Background(), ex.ID, elena, exchange.StatusCancelled)
	assert.ErrorIs(t, err, exchange.ErrNotAuthorized)

	err = e.RequestTransition(context.Background(), "ex-nope", marco, exchange.StatusCancelled)
	assert.ErrorIs(t, err, exchange.ErrNotAuthorized)
}

func TestTransition_UnknownTargetRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	err := e.RequestTransition(context.Background(), ex.ID, marco, exchange.Status("delivered"))
	assert.ErrorIs(t, err, exchange.ErrInvalidInput)
}

func TestTransition_CreditConservation(t *testing.T) {
	e, _ := newTestEngine(t)
	before := balance(t, e, rosa) + balance(t, e, marco)

	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)

	assert.Equal(t, before, balance(t, e, rosa)+balance(t, e, marco))
}

func TestTransition_ConcurrentCompletion_OnlyOneSettles(t *testing.T) {
	// Two racing completion requests must settle exactly once.
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, marco, exchange.StatusConfirmed, exchange.StatusInProgress)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.RequestTransition(context.Background(), ex.ID, marco, exchange.StatusCompleted)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		lost := errors.Is(err, exchange.ErrConflict) ||
			errors.Is(err, exchange.ErrSameStatus) ||
			errors.Is(err, exchange.ErrIllegalTransition)
		assert.True(t, lost, "unexpected race error: %v", err)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(7), balance(t, e, rosa))
	assert.Equal(t, int64(13), balance(t, e, marco))
}

func completedExchange(t *testing.T, e *exchange.Engine) *exchange.Exchange {
	t.Helper()
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, marco,
		exchange.StatusConfirmed, exchange.StatusInProgress, exchange.StatusCompleted)
	return ex
}

func TestSubmitRating_BothParticipantsOnceEach(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := completedExchange(t, e)

	r, err := e.SubmitRating(context.Background(), ex.ID, rosa, 5, "Muy amable y paciente.")
	require.NoError(t, err)
	assert.Equal(t, marco, r.DestinatarioID)

	// Second rating by the same author fails regardless of score/comment.
	_, err = e.SubmitRating(context.Background(), ex.ID, rosa, 1, "changed my mind")
	assert.ErrorIs(t, err, exchange.ErrAlreadyRated)

	// The provider is a different author and may still rate.
	r, err = e.SubmitRating(context.Background(), ex.ID, marco, 4, "")
	require.NoError(t, err)
	assert.Equal(t, rosa, r.DestinatarioID)
}

func TestSubmitRating_OnlyCompletedExchanges(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)

	for _, status := range []exchange.Status{exchange.StatusConfirmed, exchange.StatusInProgress} {
		advance(t, e, ex.ID, marco, status)
		_, err := e.SubmitRating(context.Background(), ex.ID, rosa, 5, "")
		assert.ErrorIs(t, err, exchange.ErrNotEligible, "status %s", status)
	}
}

func TestSubmitRating_CancelledNotEligible(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := createExchange(t, e, nil)
	advance(t, e, ex.ID, rosa, exchange.StatusCancelled)

	_, err := e.SubmitRating(context.Background(), ex.ID, rosa, 3, "")
	assert.ErrorIs(t, err, exchange.ErrNotEligible)
}

func TestSubmitRating_ScoreBounds(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := completedExchange(t, e)

	for _, score := range []int{0, 6, -1, 100} {
		_, err := e.SubmitRating(context.Background(), ex.ID, rosa, score, "")
		assert.ErrorIs(t, err, exchange.ErrInvalidScore, "score %d", score)
	}
}

func TestSubmitRating_OutsiderRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := completedExchange(t, e)

	_, err := e.SubmitRating(context.Background(), ex.ID, elena, 5, "")
	assert.ErrorIs(t, err, exchange.ErrNotAuthorized)

	_, err = e.SubmitRating(context.Background(), "ex-nope", rosa, 5, "")
	assert.ErrorIs(t, err, exchange.ErrNotAuthorized)
}

func TestSubmitRating_CommentTrimmedAndTruncated(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := completedExchange(t, e)

	long := "  " + strings.Repeat("ñ", 400) + "  "
	r, err := e.SubmitRating(context.Background(), ex.ID, rosa, 4, long)
	require.NoError(t, err)
	assert.Equal(t, 300, len([]rune(r.Comment)))
	assert.Equal(t, strings.Repeat("ñ", 300), r.Comment)
}

func TestSubmitRating_DoesNotTouchBalances(t *testing.T) {
	e, _ := newTestEngine(t)
	ex := completedExchange(t, e)
	rosaBefore, marcoBefore := balance(t, e, rosa), balance(t, e, marco)

	_, err := e.SubmitRating(context.Background(), ex.ID, rosa, 5, "")
	require.NoError(t, err)

	assert.Equal(t, rosaBefore, balance(t, e, rosa))
	assert.Equal(t, marcoBefore, balance(t, e, marco))
}
