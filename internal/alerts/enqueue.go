package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidrs-dev/trueque/internal/db"
)

// CreateNotification inserts a notification row. Callers treat delivery as
// best-effort: a failed insert never rolls back the action that triggered it.
func CreateNotification(userID, ntype, title, body string, reference *string) error {
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO notifications (id, user_id, type, title, body, reference, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), userID, ntype, title, body, reference, time.Now(),
	)
	return err
}

// NotifyExchangeRequested tells the provider a new exchange awaits them.
func NotifyExchangeRequested(providerID, exchangeID, serviceTitle string) error {
	return CreateNotification(providerID, TypeExchangeRequested,
		"New exchange request",
		fmt.Sprintf("Someone requested your service %q.", serviceTitle),
		&exchangeID,
	)
}

// NotifyExchangeUpdated tells the counterparty the exchange moved.
func NotifyExchangeUpdated(userID, exchangeID, status string) error {
	return CreateNotification(userID, TypeExchangeUpdated,
		"Exchange updated",
		fmt.Sprintf("An exchange you participate in is now %s.", status),
		&exchangeID,
	)
}

// NotifyRatingReceived tells the destinatario about a new rating.
func NotifyRatingReceived(userID, exchangeID string, score int) error {
	return CreateNotification(userID, TypeRatingReceived,
		"You received a rating",
		fmt.Sprintf("A member rated you %d/5 after an exchange.", score),
		&exchangeID,
	)
}
