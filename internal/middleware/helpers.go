package middleware

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout-relevant data from the Echo context
// (populated by the session middleware) into Go's context.Context so templ
// components can read it. Registered once at startup in app/routes.go.
//
// The callback keeps this package from importing plugin types.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsHTMX returns true if the request was initiated by HTMX and is NOT a
// boosted navigation. Boosted requests expect full pages.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true" &&
		c.Request().Header.Get("HX-Boosted") != "true"
}

// IsAPIRequest returns true if the request targets the JSON API.
func IsAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || len(path) >= 5 && path[:5] == "/api/"
}

// Render writes a templ component to the response with the given status
// code, after running the LayoutInjector.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()

	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}

// Navigate sends the client to path: HX-Redirect for HTMX requests, 303 See
// Other otherwise.
func Navigate(c echo.Context, path string) error {
	if IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", path)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, path)
}

const (
	flashSuccessKey = "flash_success"
	flashErrorKey   = "flash_error"
)

// SetFlashSuccess queues a success notice for the page rendered by this
// request.
func SetFlashSuccess(c echo.Context, msg string) {
	c.Set(flashSuccessKey, msg)
}

// SetFlashError queues a failure notice for the page rendered by this
// request.
func SetFlashError(c echo.Context, msg string) {
	c.Set(flashErrorKey, msg)
}

// GetFlashSuccess returns the queued success notice, or "".
func GetFlashSuccess(c echo.Context) string {
	msg, _ := c.Get(flashSuccessKey).(string)
	return msg
}

// GetFlashError returns the queued failure notice, or "".
func GetFlashError(c echo.Context) string {
	msg, _ := c.Get(flashErrorKey).(string)
	return msg
}
