package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
)

func newTestServer(repo *mockProfileRepo, apiKey string) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	RegisterRoutes(e.Group("/api/v1"), NewHandler(NewProfileService(repo)), apiKey)
	return e
}

func TestHandler_UpsertAndGet(t *testing.T) {
	repo := newMockRepo()
	e := newTestServer(repo, "secret")

	body := `{"name":"Ann","email":"ann@example.com","photo":"https://img.example.com/a.png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(apiKeyHeader, "secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Email != "ann@example.com" || got.Name != "Ann" {
		t.Errorf("unexpected profile %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/ann@example.com", nil)
	req.Header.Set(apiKeyHeader, "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", rec.Code)
	}
}

func TestHandler_RejectsWrongAPIKey(t *testing.T) {
	repo := newMockRepo()
	e := newTestServer(repo, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"email":"ann@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(apiKeyHeader, "wrong")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if repo.upserts != 0 {
		t.Error("unauthorized request reached the repository")
	}
}

func TestClient_UpsertAgainstHandler(t *testing.T) {
	repo := newMockRepo()
	srv := httptest.NewServer(newTestServer(repo, "secret"))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1/users", "secret", time.Second)
	err := client.Upsert(context.Background(), UpsertRequest{Name: "Ann", Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, ok := repo.profiles["ann@example.com"]; !ok {
		t.Error("profile not stored")
	}
}

func TestClient_NonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", time.Second).Upsert(context.Background(), UpsertRequest{Email: "ann@example.com"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected 503 error, got %v", err)
	}
}
