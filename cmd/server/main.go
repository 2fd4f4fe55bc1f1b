package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/davidrs-dev/trueque/internal/admin"
	"github.com/davidrs-dev/trueque/internal/alerts"
	"github.com/davidrs-dev/trueque/internal/auth"
	"github.com/davidrs-dev/trueque/internal/db"
	"github.com/davidrs-dev/trueque/internal/exchange"
	mware "github.com/davidrs-dev/trueque/internal/middleware"
	"github.com/davidrs-dev/trueque/internal/services"
	"github.com/davidrs-dev/trueque/internal/user"
	"github.com/davidrs-dev/trueque/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	// Initialize database connection and schema
	db.Init()

	engine := exchange.NewEngine(exchange.NewPostgresStore(db.Conn))
	exchanges := exchange.NewHandler(engine, db.Conn)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "trueque"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes with per-IP rate limiting on auth to protect signup/login
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", user.GetPublicProfile)
	e.GET("/services", services.List)
	e.GET("/reputation", exchanges.Reputation)

	// Authenticated routes
	g := e.Group("")
	g.Use(mware.JWTMiddleware)

	g.GET("/auth/me", auth.Me)
	g.PATCH("/user/profile", user.UpdateProfile)

	// Wallet
	g.GET("/wallet/balance", wallet.Balance)
	g.GET("/wallet/transactions", wallet.GetUserTransactions)

	// Services
	g.POST("/services", services.Create)
	g.GET("/services/me", services.ListMine)
	g.PATCH("/services/:id", services.Update)
	g.DELETE("/services/:id", services.Delete)

	// Exchange lifecycle
	g.POST("/exchanges", exchanges.Create)
	g.GET("/exchanges", exchanges.ListMine)
	g.GET("/exchanges/:id", exchanges.Get)
	g.POST("/exchanges/:id/transition", exchanges.Transition)
	g.GET("/exchanges/:id/transitions", exchanges.Targets)
	g.DELETE("/exchanges/:id", exchanges.Delete)

	// Ratings
	g.POST("/exchanges/:id/rating", exchanges.CreateRating)
	g.GET("/exchanges/:id/ratings", exchanges.ExchangeRatings)
	g.GET("/ratings/received", exchanges.ReceivedRatings)

	// Notifications
	g.GET("/notifications", alerts.ListNotifications)
	g.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/credits", admin.AdjustCredits)
	adminGroup.GET("/exchanges", admin.ListExchanges)
	adminGroup.DELETE("/ratings/:id", admin.DeleteRating)
	adminGroup.GET("/transactions", wallet.AdminGetAllTransactions)
	adminGroup.GET("/transactions/user/:id", wallet.AdminGetUserTransactions)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("trueque API listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
