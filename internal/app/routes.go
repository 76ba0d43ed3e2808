package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/middleware"
	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
	"github.com/keyxmakerx/bookworm/internal/plugins/auth"
	"github.com/keyxmakerx/bookworm/internal/plugins/library"
	"github.com/keyxmakerx/bookworm/internal/plugins/users"
	"github.com/keyxmakerx/bookworm/internal/templates/layouts"
	"github.com/keyxmakerx/bookworm/internal/templates/pages"
)

// healthCheckTimeout bounds the dependency pings of /healthz.
const healthCheckTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. It wires each plugin's
// dependencies and delegates to the plugin's route registration function.
//
// This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config

	// --- Plugin wiring ---

	profileService := users.NewProfileService(users.NewProfileRepository(a.DB))
	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))

	var identity auth.FederatedIdentity
	if cfg.Google.Enabled() {
		identity = auth.NewGoogleIdentity(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.BaseURL)
	}
	authService := auth.NewAuthService(auth.NewUserRepository(a.DB), a.Redis, identity, cfg.Auth.SessionTTL)

	usersClient := users.NewClient(cfg.UsersAPI.URL, cfg.UsersAPI.Key, cfg.UsersAPI.Timeout)
	a.Login = auth.NewLoginFlow(
		authService,
		auth.NewRedisSubmitLock(a.Redis, cfg.Auth.LoginLockTTL),
		profileSyncer{client: usersClient},
		cfg.UsersAPI.Timeout,
	)

	// Every request gets a session store resolved in the background.
	e.Use(auth.ResolveSession(authService))

	// Templates read layout data from context.Context, not echo.Context.
	resolveTimeout := cfg.Auth.ResolveTimeout
	googleEnabled := identity != nil
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.SetSession(ctx, auth.CurrentSession(c, resolveTimeout))
		ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
		ctx = layouts.SetGoogleEnabled(ctx, googleEnabled)
		if msg := middleware.GetFlashSuccess(c); msg != "" {
			ctx = layouts.SetFlashSuccess(ctx, msg)
		}
		if msg := middleware.GetFlashError(c); msg != "" {
			ctx = layouts.SetFlashError(ctx, msg)
		}
		return ctx
	}

	// --- Public Routes ---

	e.GET("/", func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, pages.Landing())
	})
	e.GET("/healthz", a.healthz)

	a.Auth = auth.NewHandler(authService, a.Login, identity, cfg.Auth.SessionTTL, resolveTimeout)
	a.Auth.SetActivityLogger(auditService)
	auth.RegisterRoutes(e, a.Auth)

	// --- Protected Routes ---

	protected := e.Group("", auth.RequireAuth(resolveTimeout))
	libraryHandler := library.NewHandler(profileService)
	libraryHandler.SetActivityReader(auditService)
	library.RegisterRoutes(protected, libraryHandler)

	// --- API Routes ---

	api := e.Group("/api/v1")
	users.RegisterRoutes(api, users.NewHandler(profileService), cfg.UsersAPI.Key)
}

// healthz reports whether MariaDB and Redis answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]string{"status": "ok", "mariadb": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["mariadb"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, status)
}

// profileSyncer adapts the users API client to the login flow.
type profileSyncer struct {
	client *users.Client
}

func (s profileSyncer) SyncProfile(ctx context.Context, p auth.FederatedProfile) error {
	return s.client.Upsert(ctx, users.UpsertRequest{
		Name:  p.Name,
		Email: p.Email,
		Photo: p.Picture,
	})
}
