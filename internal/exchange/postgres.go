package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx pool. Serialization relies on
// row-level locks plus a status re-check inside each transaction, and on the
// partial unique index over active exchanges for duplicate requests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *PostgresStore) ServiceByID(ctx context.Context, id string) (*Service, error) {
	var svc Service
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, credits_per_hour, created_at
		 FROM services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.OwnerID, &svc.Title, &svc.Description, &svc.CreditsPerHour, &svc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch service: %w", err)
	}
	return &svc, nil
}

func (s *PostgresStore) ExchangeByID(ctx context.Context, id string) (*Exchange, error) {
	var ex Exchange
	err := s.pool.QueryRow(ctx,
		`SELECT id, requested_service_id, counter_service_id, requester_id, provider_id, status, created_at
		 FROM exchanges WHERE id = $1`, id,
	).Scan(&ex.ID, &ex.RequestedServiceID, &ex.CounterServiceID, &ex.RequesterID, &ex.ProviderID, &ex.Status, &ex.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch exchange: %w", err)
	}
	return &ex, nil
}

func (s *PostgresStore) CreateExchange(ctx context.Context, ex *Exchange) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exchanges (id, requested_service_id, counter_service_id, requester_id, provider_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ex.ID, ex.RequestedServiceID, ex.CounterServiceID, ex.RequesterID, ex.ProviderID, ex.Status, ex.CreatedAt,
	)
	if err != nil {
		// The partial unique index over active statuses turns the
		// check-then-act race into a constraint violation.
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE exchanges SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM exchanges WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) CompleteWithTransfer(ctx context.Context, id string, from Status, requesterID, providerID string, cost int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the exchange row so only one settlement can run for it.
	var current Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM exchanges WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock exchange: %w", err)
	}
	if current != from {
		return ErrConflict
	}

	// Lock both wallets in id order to keep concurrent settlements
	// deadlock-free, then read the requester's balance.
	rows, err := tx.Query(ctx,
		`SELECT id, credits FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		[]string{requesterID, providerID},
	)
	if err != nil {
		return fmt.Errorf("lock wallets: %w", err)
	}
	var balance int64
	var locked int
	for rows.Next() {
		var uid string
		var credits int64
		if err := rows.Scan(&uid, &credits); err != nil {
			rows.Close()
			return fmt.Errorf("lock wallets: %w", err)
		}
		if uid == requesterID {
			balance = credits
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock wallets: %w", err)
	}
	if locked != 2 {
		return ErrNotFound
	}

	if balance < cost {
		return &InsufficientFundsError{RequesterID: requesterID, Balance: balance, Cost: cost}
	}

	if _, err = tx.Exec(ctx,
		`UPDATE users SET credits = credits - $1 WHERE id = $2`, cost, requesterID,
	); err != nil {
		return fmt.Errorf("debit requester: %w", err)
	}
	if _, err = tx.Exec(ctx,
		`UPDATE users SET credits = credits + $1 WHERE id = $2`, cost, providerID,
	); err != nil {
		return fmt.Errorf("credit provider: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE exchanges SET status = $1, updated_at = NOW() WHERE id = $2`,
		StatusCompleted, id,
	); err != nil {
		return fmt.Errorf("complete exchange: %w", err)
	}

	// Ledger history rows for both sides of the movement.
	now := time.Now()
	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, reference, created_at)
		 VALUES ($1, $2, $3, 'debit', $4, $5)`,
		uuid.New().String(), requesterID, cost, id, now,
	); err != nil {
		return fmt.Errorf("record debit: %w", err)
	}
	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, reference, created_at)
		 VALUES ($1, $2, $3, 'credit', $4, $5)`,
		uuid.New().String(), providerID, cost, id, now,
	); err != nil {
		return fmt.Errorf("record credit: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := s.pool.QueryRow(ctx,
		`SELECT credits FROM users WHERE id = $1`, userID,
	).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	return credits, nil
}

func (s *PostgresStore) CreateRating(ctx context.Context, r *Rating) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ratings (id, exchange_id, author_id, destinatario_id, score, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.ExchangeID, r.AuthorID, r.DestinatarioID, r.Score, r.Comment, r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRated
		}
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}
