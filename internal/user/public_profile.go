package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/db"
)

type PublicProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MemberSince   time.Time `json:"member_since"`
	ServiceCount  int       `json:"service_count"`
	RatingCount   int       `json:"rating_count"`
	AverageRating *float64  `json:"average_rating"`
}

// GetPublicProfile returns another member's public card: display name,
// listings, and the reputation earned as destinatario of ratings.
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	ctx := context.Background()

	var p PublicProfile
	err := db.Conn.QueryRow(ctx,
		`SELECT id, name, created_at FROM users WHERE id = $1`, userID,
	).Scan(&p.ID, &p.Name, &p.MemberSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM services WHERE user_id = $1`, userID,
	).Scan(&p.ServiceCount); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch services"})
	}

	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*), AVG(score)::float FROM ratings WHERE destinatario_id = $1`, userID,
	).Scan(&p.RatingCount, &p.AverageRating); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}

	return c.JSON(http.StatusOK, p)
}
