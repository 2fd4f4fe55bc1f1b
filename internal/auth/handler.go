package auth

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidrs-dev/trueque/internal/db"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// welcomeCredits is the starting balance for new members; a time bank needs a
// non-zero float to get the first exchanges moving.
func welcomeCredits() int64 {
	if v := os.Getenv("WELCOME_CREDITS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return 10
}

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 8 characters are required"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}

	userID := uuid.New().String()
	_, err = db.Conn.Exec(context.Background(),
		`INSERT INTO users (id, name, email, password, role, credits, created_at)
		 VALUES ($1, $2, $3, $4, 'usuario', $5, $6)`,
		userID, req.Name, req.Email, string(hash), welcomeCredits(), time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id": userID,
		"message": "Account created successfully",
	})
}
