package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/db"
)

type MeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// Me returns the authenticated user's profile and balance
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var me MeResponse
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name, email, role, credits, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&me.ID, &me.Name, &me.Email, &me.Role, &me.Credits, &me.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, me)
}
