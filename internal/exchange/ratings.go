package exchange

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/alerts"
)

// CreateRating handles POST /exchanges/:id/rating - a participant rates the
// counterparty of a completed exchange.
func (h *Handler) CreateRating(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	exchangeID := c.Param("id")
	if exchangeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing exchange id"})
	}

	var req struct {
		Score   int    `json:"score"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	rating, err := h.engine.SubmitRating(c.Request().Context(), exchangeID, uid, req.Score, req.Comment)
	if err != nil {
		return writeError(c, err)
	}

	// Notify the destinatario (best-effort)
	_ = alerts.NotifyRatingReceived(rating.DestinatarioID, rating.ExchangeID, rating.Score)

	return c.JSON(http.StatusCreated, echo.Map{
		"rating_id": rating.ID,
		"message":   "Rating created successfully",
	})
}

// ExchangeRatings handles GET /exchanges/:id/ratings for participants and
// admins. An exchange carries at most two ratings, one per participant.
func (h *Handler) ExchangeRatings(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	ex, err := h.engine.store.ExchangeByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !ex.Participant(uid) && role != "admin" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	}

	rows, err := h.pool.Query(context.Background(),
		`SELECT id, exchange_id, author_id, destinatario_id, score, comment, created_at
		 FROM ratings WHERE exchange_id = $1 ORDER BY created_at`, ex.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.ExchangeID, &r.AuthorID, &r.DestinatarioID, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		ratings = append(ratings, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"ratings": ratings})
}

// ReceivedRatings handles GET /ratings/received - ratings where the
// authenticated user is the destinatario.
func (h *Handler) ReceivedRatings(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(context.Background(),
		`SELECT id, exchange_id, author_id, destinatario_id, score, comment, created_at
		 FROM ratings WHERE destinatario_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.ExchangeID, &r.AuthorID, &r.DestinatarioID, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		ratings = append(ratings, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"ratings": ratings})
}
