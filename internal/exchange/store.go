package exchange

import "context"

// Store is the persistence boundary of the exchange core. Implementations
// must make each method atomic: a failed call leaves no partial state behind.
//
// Two implementations exist: the pgx-backed Postgres store used in
// production and a mutex-guarded in-memory store used by tests.
type Store interface {
	// ServiceByID returns ErrNotFound when the service does not exist.
	ServiceByID(ctx context.Context, id string) (*Service, error)

	// ExchangeByID returns ErrNotFound when the exchange does not exist.
	ExchangeByID(ctx context.Context, id string) (*Exchange, error)

	// CreateExchange persists a new exchange. It returns ErrDuplicateActive
	// when an exchange in an active state already exists for the same
	// (requested_service, requester, provider) triple; the check and the
	// insert are a single atomic unit.
	CreateExchange(ctx context.Context, ex *Exchange) error

	// UpdateStatus is a compare-and-set on the status column: it moves the
	// exchange from -> to only if the current status is still `from`,
	// returning ErrConflict when a concurrent writer got there first and
	// ErrNotFound when the exchange is gone.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	// CompleteWithTransfer performs credit settlement: within one atomic
	// unit it verifies the exchange is still in `from`, debits the requester
	// and credits the provider by cost, and writes StatusCompleted. It
	// returns ErrInsufficientFunds (wrapped in InsufficientFundsError) when
	// the requester cannot cover cost, ErrConflict when the status moved
	// underneath, and leaves both balances and the status untouched on any
	// failure.
	CompleteWithTransfer(ctx context.Context, id string, from Status, requesterID, providerID string, cost int64) error

	// Balance returns the user's current credit balance.
	Balance(ctx context.Context, userID string) (int64, error)

	// CreateRating persists a rating, returning ErrAlreadyRated when one
	// already exists for the same (exchange, author) pair. The uniqueness
	// check and the insert are a single atomic unit.
	CreateRating(ctx context.Context, r *Rating) error
}
