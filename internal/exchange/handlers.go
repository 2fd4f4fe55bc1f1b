package exchange

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/davidrs-dev/trueque/internal/alerts"
)

// Handler exposes the exchange lifecycle over HTTP. State-changing calls go
// through the engine; read-only listings query the pool directly.
type Handler struct {
	engine *Engine
	pool   *pgxpool.Pool
}

func NewHandler(engine *Engine, pool *pgxpool.Pool) *Handler {
	return &Handler{engine: engine, pool: pool}
}

// writeError maps domain errors to HTTP responses. Infrastructure errors are
// never echoed to the client.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, ErrInsufficientFunds):
		var ife *InsufficientFundsError
		if errors.As(err, &ife) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "insufficient funds",
				"balance": ife.Balance,
				"cost":    ife.Cost,
			})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
	case errors.Is(err, ErrAlreadyRated),
		errors.Is(err, ErrDuplicateActive),
		errors.Is(err, ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case IsDomainError(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// actor pulls the authenticated user id set by the JWT middleware.
func actor(c echo.Context) (string, bool) {
	uid, ok := c.Get("user_id").(string)
	return uid, ok && uid != ""
}

// Create handles POST /exchanges - requester opens a pending exchange.
func (h *Handler) Create(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		RequestedServiceID string  `json:"requested_service_id"`
		CounterServiceID   *string `json:"counter_service_id"`
	}
	if err := c.Bind(&req); err != nil || req.RequestedServiceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid requested_service_id"})
	}

	ex, err := h.engine.CreateExchange(c.Request().Context(), CreateExchangeInput{
		RequesterID:        uid,
		RequestedServiceID: req.RequestedServiceID,
		CounterServiceID:   req.CounterServiceID,
	})
	if err != nil {
		return writeError(c, err)
	}

	// Notify the provider (best-effort)
	var title string
	_ = h.pool.QueryRow(context.Background(),
		`SELECT title FROM services WHERE id = $1`, ex.RequestedServiceID).Scan(&title)
	_ = alerts.NotifyExchangeRequested(ex.ProviderID, ex.ID, title)

	return c.JSON(http.StatusCreated, echo.Map{
		"exchange_id": ex.ID,
		"status":      ex.Status,
		"message":     "Exchange requested. Awaiting provider confirmation.",
	})
}

// Transition handles POST /exchanges/:id/transition.
func (h *Handler) Transition(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	exchangeID := c.Param("id")
	if exchangeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing exchange id in URL"})
	}

	var req struct {
		Target Status `json:"target"`
	}
	if err := c.Bind(&req); err != nil || req.Target == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid target status"})
	}

	if err := h.engine.RequestTransition(c.Request().Context(), exchangeID, uid, req.Target); err != nil {
		return writeError(c, err)
	}

	// Notify the counterparty (best-effort)
	if ex, err := h.engine.store.ExchangeByID(c.Request().Context(), exchangeID); err == nil {
		_ = alerts.NotifyExchangeUpdated(ex.OtherParty(uid), ex.ID, string(ex.Status))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Exchange updated", "status": req.Target})
}

// Targets handles GET /exchanges/:id/transitions - the status choices the
// viewing participant may pick from.
func (h *Handler) Targets(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	exchangeID := c.Param("id")
	if exchangeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing exchange id in URL"})
	}

	targets, err := h.engine.AllowedTargetsFor(c.Request().Context(), exchangeID, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"targets": targets})
}

// Get handles GET /exchanges/:id for participants and admins.
func (h *Handler) Get(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"exchange": ex})
}

// ListMine handles GET /exchanges - all exchanges the user participates in.
func (h *Handler) ListMine(c echo.Context) error {
	uid, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(context.Background(),
		`SELECT id, requested_service_id, counter_service_id, requester_id, provider_id, status, created_at
		 FROM exchanges WHERE requester_id = $1 OR provider_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch exchanges"})
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.ID, &ex.RequestedServiceID, &ex.CounterServiceID, &ex.RequesterID, &ex.ProviderID, &ex.Status, &ex.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		exchanges = append(exchanges, ex)
	}
	return c.JSON(http.StatusOK, echo.Map{"exchanges": exchanges})
}

// Delete handles DELETE /exchanges/:id. Hard deletion is only possible while
// the exchange is pending or after cancellation; a live exchange must be
// cancelled first. Admins follow the same rule when moderating.
func (h *Handler) Delete(c echo.Context) error {
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

	res, err := h.pool.Exec(context.Background(),
		`DELETE FROM exchanges WHERE id = $1 AND status IN ('pending', 'cancelled')`, ex.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete exchange"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exchange cannot be deleted at this stage"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Exchange deleted"})
}
