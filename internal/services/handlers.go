package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/db"
)

// Service is a member's listing: the unit requested in an exchange and,
// optionally, the unit offered back as barter payment.
type Service struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CreditsPerHour int64     `json:"credits_per_hour"`
	CreatedAt      time.Time `json:"created_at"`
}

type upsertRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	CreditsPerHour int64  `json:"credits_per_hour"`
}

// validate returns the trimmed fields, or a client-facing message when a
// bound is violated.
func (r *upsertRequest) validate() (title, description, errMsg string) {
	title, ok := validText(r.Title, titleMinLen, titleMaxLen)
	if !ok {
		return "", "", "title must be between 3 and 100 characters"
	}
	description, ok = validText(r.Description, descriptionMinLen, descriptionMaxLen)
	if !ok {
		return "", "", "description must be between 10 and 600 characters"
	}
	if !validCredits(r.CreditsPerHour) {
		return "", "", "credits per hour must be between 1 and 10"
	}
	return title, description, ""
}

// Create allows a member to list a new service
func Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	title, description, errMsg := req.validate()
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errMsg})
	}

	serviceID := uuid.New().String()
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO services (id, user_id, title, description, credits_per_hour, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		serviceID, uid, title, description, req.CreditsPerHour, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"service_id": serviceID,
		"message":    "Service created successfully",
	})
}

// List returns all services visible on the platform
func List(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, title, description, credits_per_hour, created_at
		 FROM services ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.CreditsPerHour, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		out = append(out, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// ListMine returns the authenticated user's listings
func ListMine(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, title, description, credits_per_hour, created_at
		 FROM services WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.CreditsPerHour, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		out = append(out, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// ownerOrAdmin fetches the service owner and checks the actor may mutate it.
func ownerOrAdmin(c echo.Context, serviceID string) (authorized bool, handled error) {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)

	var ownerID string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT user_id FROM services WHERE id = $1`, serviceID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}
	if uid != ownerID && role != "admin" {
		return false, c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	}
	return true, nil
}

// Update edits a listing; owner or admin only
func Update(c echo.Context) error {
	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	ok, handled := ownerOrAdmin(c, serviceID)
	if !ok {
		return handled
	}

	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	title, description, errMsg := req.validate()
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errMsg})
	}

	_, err := db.Conn.Exec(context.Background(),
		`UPDATE services SET title = $1, description = $2, credits_per_hour = $3 WHERE id = $4`,
		title, description, req.CreditsPerHour, serviceID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Service updated successfully"})
}

// Delete removes a listing; owner or admin only. Listings referenced by an
// active exchange stay until the exchange resolves.
func Delete(c echo.Context) error {
	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	ok, handled := ownerOrAdmin(c, serviceID)
	if !ok {
		return handled
	}

	var active bool
	if err := db.Conn.QueryRow(context.Background(),
		`SELECT EXISTS (
            SELECT 1 FROM exchanges
            WHERE (requested_service_id = $1 OR counter_service_id = $1)
              AND status IN ('pending','confirmed','in_progress')
        )`, serviceID).Scan(&active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check exchanges"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "service is referenced by an active exchange"})
	}

	if _, err := db.Conn.Exec(context.Background(),
		`DELETE FROM services WHERE id = $1`, serviceID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Service deleted"})
}
