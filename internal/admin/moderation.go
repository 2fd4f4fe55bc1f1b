package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/db"
)

// DELETE /admin/ratings/:id - remove an abusive rating
func DeleteRating(c echo.Context) error {
	ratingID := c.Param("id")
	if ratingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating ID is required"})
	}

	res, err := db.Conn.Exec(context.Background(),
		`DELETE FROM ratings WHERE id = $1`, ratingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete rating"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rating not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Rating deleted"})
}

// GET /admin/exchanges - full exchange listing for moderation
func ListExchanges(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, requested_service_id, counter_service_id, requester_id, provider_id, status, created_at
		 FROM exchanges ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch exchanges"})
	}
	defer rows.Close()

	type row struct {
		ID                 string    `json:"id"`
		RequestedServiceID string    `json:"requested_service_id"`
		CounterServiceID   *string   `json:"counter_service_id,omitempty"`
		RequesterID        string    `json:"requester_id"`
		ProviderID         string    `json:"provider_id"`
		Status             string    `json:"status"`
		CreatedAt          time.Time `json:"created_at"`
	}
	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ID, &r.RequestedServiceID, &r.CounterServiceID, &r.RequesterID, &r.ProviderID, &r.Status, &r.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read exchange record"})
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"exchanges": out})
}
