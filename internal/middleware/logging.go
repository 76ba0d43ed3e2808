// Package middleware provides HTTP middleware for the BookWorm Echo server.
// Global middleware is registered in internal/app/app.go; per-route
// middleware (rate limits, auth) is attached by each plugin's routes.go.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns middleware that logs every HTTP request with
// method, path, status, latency and remote IP. The query string is not
// logged: login redirects carry visitor paths in it.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response first so the
				// logged status is the one the client sees.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			level := slog.LevelInfo
			switch {
			case res.Status >= 500:
				level = slog.LevelError
			case res.Status >= 400:
				level = slog.LevelWarn
			}

			slog.LogAttrs(req.Context(), level, "request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			)

			return nil
		}
	}
}
