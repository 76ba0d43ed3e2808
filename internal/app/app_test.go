package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/config"
)

func newTestApp() *App {
	return New(&config.Config{Env: "development", BaseURL: "http://localhost:8080"}, nil, nil)
}

func serve(a *App, method, path string, handler echo.HandlerFunc, header http.Header) *httptest.ResponseRecorder {
	a.Echo.Add(method, path, handler)
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler_BrowserUnauthorizedRedirectsWithIntent(t *testing.T) {
	rec := serve(newTestApp(), http.MethodGet, "/dashboard", func(c echo.Context) error {
		return apperror.NewUnauthorized("sign in")
	}, nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?redirect=/dashboard" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

func TestErrorHandler_HTMXUnauthorizedUsesHXRedirect(t *testing.T) {
	rec := serve(newTestApp(), http.MethodGet, "/library", func(c echo.Context) error {
		return apperror.NewUnauthorized("sign in")
	}, http.Header{"Hx-Request": {"true"}})

	if rec.Code != http.StatusNoContent || rec.Header().Get("HX-Redirect") != "/login?redirect=/library" {
		t.Errorf("expected HX-Redirect to login, got %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}
}

func TestErrorHandler_APIGetsJSON(t *testing.T) {
	rec := serve(newTestApp(), http.MethodGet, "/api/v1/thing", func(c echo.Context) error {
		return apperror.NewValidation("email is required")
	}, nil)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"email is required"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestErrorHandler_InternalErrorHidesCause(t *testing.T) {
	rec := serve(newTestApp(), http.MethodGet, "/boom", func(c echo.Context) error {
		return apperror.NewInternal(errors.New("dial tcp 10.0.0.5:3306: refused"))
	}, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "10.0.0.5") {
		t.Error("internal error detail leaked to the page")
	}
	if !strings.Contains(body, "An unexpected error occurred. Please try again.") {
		t.Errorf("expected safe message in error page:\n%s", body)
	}
}

func TestErrorHandler_UnknownRouteRendersNotFoundPage(t *testing.T) {
	a := newTestApp()
	req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404 · Not Found") {
		t.Errorf("expected error page, got:\n%s", rec.Body.String())
	}
}
