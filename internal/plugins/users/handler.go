package users

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
)

// apiKeyHeader carries the shared secret on server-to-server calls.
const apiKeyHeader = "X-API-Key"

// Handler serves the reader profile JSON API.
type Handler struct {
	service ProfileService
}

// NewHandler creates a new profile handler.
func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// Upsert handles POST /api/v1/users.
func (h *Handler) Upsert(c echo.Context) error {
	var req UpsertRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	p, err := h.service.Upsert(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Get handles GET /api/v1/users/:email.
func (h *Handler) Get(c echo.Context) error {
	p, err := h.service.Get(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// RequireAPIKey rejects requests whose X-API-Key does not match key. An
// empty key disables the check (development only; config enforces a key
// in production).
func RequireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			got := c.Request().Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return apperror.NewUnauthorized("invalid API key")
			}
			return next(c)
		}
	}
}
