package users

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the profile API on the given /api/v1 group.
func RegisterRoutes(api *echo.Group, h *Handler, apiKey string) {
	g := api.Group("/users", RequireAPIKey(apiKey))
	g.POST("", h.Upsert)
	g.GET("/:email", h.Get)
}
