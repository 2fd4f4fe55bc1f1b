package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/alerts"
	"github.com/davidrs-dev/trueque/internal/db"
)

type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, email, role, credits, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Credits, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/credits - grant or revoke credits. The guarded UPDATE
// keeps the balance from going negative, and the adjustment is logged in the
// same transaction.
func AdjustCredits(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user ID is required"})
	}

	var req struct {
		Delta int64 `json:"delta"`
	}
	if err := c.Bind(&req); err != nil || req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be a non-zero integer"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $1 WHERE id = $2 AND credits + $1 >= 0`,
		req.Delta, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to adjust credits"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user not found or adjustment would make balance negative"})
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, reference, created_at)
		 VALUES ($1, $2, $3, 'adjustment', NULL, $4)`,
		uuid.New().String(), userID, req.Delta, time.Now()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record adjustment"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify the user (best-effort)
	_ = alerts.CreateNotification(userID, alerts.TypeCreditsAdjusted,
		"Credits adjusted",
		fmt.Sprintf("An administrator adjusted your balance by %+d credits.", req.Delta),
		nil,
	)

	return c.JSON(http.StatusOK, echo.Map{"message": "Credits adjusted"})
}
