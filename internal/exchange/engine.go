package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxCommentLen is the rating comment cap; oversized comments are truncated,
// not rejected.
const maxCommentLen = 300

// Engine holds the exchange lifecycle rules. All precondition checks run
// before any mutation; the store makes the mutation itself atomic. The acting
// user is always passed in explicitly — the engine never reads session state.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CreateExchangeInput carries the create_exchange operation's arguments.
// CounterServiceID nil means credit settlement at completion; set, it is the
// requester's service offered back as barter payment.
type CreateExchangeInput struct {
	RequesterID        string
	RequestedServiceID string
	CounterServiceID   *string
}

// CreateExchange validates and persists a new pending exchange. The provider
// is derived from the requested service's owner, never supplied by the caller.
func (e *Engine) CreateExchange(ctx context.Context, in CreateExchangeInput) (*Exchange, error) {
	if in.RequesterID == "" || in.RequestedServiceID == "" {
		return nil, ErrInvalidInput
	}

	svc, err := e.store.ServiceByID(ctx, in.RequestedServiceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidService
		}
		return nil, err
	}
	if svc.OwnerID == in.RequesterID {
		return nil, ErrSelfRequest
	}

	if in.CounterServiceID != nil {
		counter, err := e.store.ServiceByID(ctx, *in.CounterServiceID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidService
			}
			return nil, err
		}
		// Barter payment must come out of the requester's own listings.
		if counter.OwnerID != in.RequesterID {
			return nil, ErrInvalidService
		}
	}

	ex := &Exchange{
		ID:                 uuid.New().String(),
		RequestedServiceID: svc.ID,
		CounterServiceID:   in.CounterServiceID,
		RequesterID:        in.RequesterID,
		ProviderID:         svc.OwnerID,
		Status:             StatusPending,
		CreatedAt:          time.Now(),
	}
	if err := e.store.CreateExchange(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// RequestTransition moves an exchange to target on behalf of actorID.
// Forward transitions are provider-only; cancellation is open to either
// participant while the exchange is active. A transition to completed runs
// settlement in the same atomic unit as the status write.
func (e *Engine) RequestTransition(ctx context.Context, exchangeID, actorID string, target Status) error {
	if !ValidStatus(target) {
		return ErrInvalidInput
	}

	ex, err := e.store.ExchangeByID(ctx, exchangeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Absent and not-yours look the same from the outside.
			return ErrNotAuthorized
		}
		return err
	}
	if !ex.Participant(actorID) {
		return ErrNotAuthorized
	}
	if target == ex.Status {
		return ErrSameStatus
	}
	if !CanTransition(ex.Status, target) {
		return ErrIllegalTransition
	}
	if target.Forward() && actorID != ex.ProviderID {
		return ErrNotAuthorized
	}

	if target == StatusCompleted {
		return e.settle(ctx, ex)
	}
	return e.store.UpdateStatus(ctx, ex.ID, ex.Status, target)
}

// settle finalizes payment for a completing exchange. Credit settlement and
// the status write commit together; barter settlement is record-only.
func (e *Engine) settle(ctx context.Context, ex *Exchange) error {
	if ex.Settlement() == SettlementBarter {
		return e.store.UpdateStatus(ctx, ex.ID, ex.Status, StatusCompleted)
	}

	svc, err := e.store.ServiceByID(ctx, ex.RequestedServiceID)
	if err != nil {
		return err
	}
	return e.store.CompleteWithTransfer(ctx, ex.ID, ex.Status, ex.RequesterID, ex.ProviderID, svc.CreditsPerHour)
}

// AllowedTargetsFor returns the status choices exchangeID offers to actorID.
func (e *Engine) AllowedTargetsFor(ctx context.Context, exchangeID, actorID string) ([]Status, error) {
	ex, err := e.store.ExchangeByID(ctx, exchangeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	if !ex.Participant(actorID) {
		return nil, ErrNotAuthorized
	}
	return AllowedTargets(ex.Status, actorID == ex.ProviderID), nil
}

// SubmitRating records authorID's rating of the other participant of a
// completed exchange. Exactly one rating per (exchange, author) pair.
func (e *Engine) SubmitRating(ctx context.Context, exchangeID, authorID string, score int, comment string) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	ex, err := e.store.ExchangeByID(ctx, exchangeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	if !ex.Participant(authorID) {
		return nil, ErrNotAuthorized
	}
	if ex.Status != StatusCompleted {
		return nil, ErrNotEligible
	}

	comment = strings.TrimSpace(comment)
	if runes := []rune(comment); len(runes) > maxCommentLen {
		comment = string(runes[:maxCommentLen])
	}

	r := &Rating{
		ID:             uuid.New().String(),
		ExchangeID:     ex.ID,
		AuthorID:       authorID,
		DestinatarioID: ex.OtherParty(authorID),
		Score:          score,
		Comment:        comment,
		CreatedAt:      time.Now(),
	}
	if err := e.store.CreateRating(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// BalanceOf returns userID's current credit balance.
func (e *Engine) BalanceOf(ctx context.Context, userID string) (int64, error) {
	return e.store.Balance(ctx, userID)
}
