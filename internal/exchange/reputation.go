package exchange

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ServiceReputation aggregates ratings received through exchanges over one
// service.
type ServiceReputation struct {
	ServiceID    string   `json:"service_id"`
	Title        string   `json:"title"`
	RatingCount  int      `json:"rating_count"`
	AverageScore *float64 `json:"average_score"`
}

// Reputation handles GET /reputation - the public per-service reputation
// report, best-rated first, unrated services last.
func (h *Handler) Reputation(c echo.Context) error {
	rows, err := h.pool.Query(context.Background(),
		`SELECT s.id, s.title, COUNT(r.id), AVG(r.score)::float
		 FROM services s
		 LEFT JOIN exchanges e ON e.requested_service_id = s.id
		 LEFT JOIN ratings r ON r.exchange_id = e.id AND r.destinatario_id = s.user_id
		 GROUP BY s.id, s.title
		 ORDER BY AVG(r.score) DESC NULLS LAST, COUNT(r.id) DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reputation"})
	}
	defer rows.Close()

	var report []ServiceReputation
	for rows.Next() {
		var sr ServiceReputation
		if err := rows.Scan(&sr.ServiceID, &sr.Title, &sr.RatingCount, &sr.AverageScore); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		report = append(report, sr)
	}
	return c.JSON(http.StatusOK, echo.Map{"reputation": report})
}
