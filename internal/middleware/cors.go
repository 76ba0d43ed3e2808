package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to call /api.
	// Example: ["https://bookworm.example.com", "http://localhost:3000"]
	AllowedOrigins []string

	// AllowCredentials lets the browser include cookies in cross-origin
	// requests.
	AllowCredentials bool
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the JSON API. Browser-side clients served from another origin (a
// separate frontend build posting reader profiles, for instance) need it;
// the server-rendered pages are same-origin and skip it.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	// Wildcard origin with credentials would let any site make
	// authenticated requests. Refuse to send credentials in that case.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: wildcard origin with credentials; credentials disabled")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			if origin == "" || !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			if !allowAll && !originSet[origin] {
				// The browser will block the response on the client side.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")

			if cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods",
					strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "))
				res.Header().Set("Access-Control-Allow-Headers",
					strings.Join([]string{"Content-Type", "X-API-Key", "X-Requested-With"}, ", "))
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
