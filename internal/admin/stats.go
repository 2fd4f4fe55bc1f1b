package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/db"
)

// GET /admin/stats - platform counters for the dashboard
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, services, exchanges, completed, ratings, creditsInCirculation int64
	row := db.Conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM services),
            (SELECT COUNT(*) FROM exchanges),
            (SELECT COUNT(*) FROM exchanges WHERE status = 'completed'),
            (SELECT COUNT(*) FROM ratings),
            (SELECT COALESCE(SUM(credits), 0) FROM users)`)
	if err := row.Scan(&users, &services, &exchanges, &completed, &ratings, &creditsInCirculation); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":                  users,
		"services":               services,
		"exchanges":              exchanges,
		"exchanges_completed":    completed,
		"ratings":                ratings,
		"credits_in_circulation": creditsInCirculation,
	})
}
