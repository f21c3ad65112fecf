// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	appsfeature "github.com/dalemusser/docuverse/internal/app/features/apps"
	auditlogfeature "github.com/dalemusser/docuverse/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	healthfeature "github.com/dalemusser/docuverse/internal/app/features/health"
	languagesfeature "github.com/dalemusser/docuverse/internal/app/features/languages"
	loginfeature "github.com/dalemusser/docuverse/internal/app/features/login"
	logoutfeature "github.com/dalemusser/docuverse/internal/app/features/logout"
	pagesfeature "github.com/dalemusser/docuverse/internal/app/features/pages"
	pageviewsfeature "github.com/dalemusser/docuverse/internal/app/features/pageviews"
	readerfeature "github.com/dalemusser/docuverse/internal/app/features/reader"
	searchfeature "github.com/dalemusser/docuverse/internal/app/features/search"
	sessionfeature "github.com/dalemusser/docuverse/internal/app/features/session"
	settingsfeature "github.com/dalemusser/docuverse/internal/app/features/settings"
	setupfeature "github.com/dalemusser/docuverse/internal/app/features/setup"
	statsfeature "github.com/dalemusser/docuverse/internal/app/features/stats"
	usersfeature "github.com/dalemusser/docuverse/internal/app/features/users"
	versionsfeature "github.com/dalemusser/docuverse/internal/app/features/versions"
	"github.com/dalemusser/docuverse/internal/app/store/audit"
	"github.com/dalemusser/docuverse/internal/app/store/ratelimit"
	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/apicors"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/metrics"
	"github.com/dalemusser/docuverse/internal/app/system/throttle"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExemptPaths are writes that happen before a session exists, or that
// anonymous readers make from other origins.
var csrfExemptPaths = map[string]bool{
	"/api/setup":      true,
	"/api/auth/login": true,
	"/api/page-views": true,
}

// csrfExempt reports whether a request skips CSRF validation. Bearer API key
// requests carry no cookie and cannot be forged cross-site.
func csrfExempt(r *http.Request) bool {
	if auth.IsAPIKeyRequest(r) {
		return true
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if csrfExemptPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/api/public/") || strings.HasPrefix(path, "/api/health")
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// # Route groups
//
//   - Admin API (/api/apps, /api/pages, ...): cookie session or Bearer API
//     key, role checks per feature, CSRF on cookie-authenticated writes.
//   - Public API (/api/public, /api/search, /api/page-views, login): no
//     session needed, per-IP rate limit, permissive CORS.
//   - Probes and metrics: /health, /ready, /live, /metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Server-side sessions: a signed cookie is only honored while its
	// session record is open, so logout and user deletion take effect at once.
	sessionsStore := sessions.New(db)
	sessionMgr.SetTokenChecker(sessionsStore)

	// Fresh user data on each request, so role changes and disabled
	// accounts apply immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))

	errLog := errorsfeature.NewErrorLogger(logger)

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(db, ratelimit.Config{
			MaxAttempts: appCfg.RateLimitLoginAttempts,
			Window:      appCfg.RateLimitLoginWindow,
			Lockout:     appCfg.RateLimitLoginLockout,
		})
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.Recoverer)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Use(metrics.Middleware)

	// Session middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Bearer API key: publishing automation acts as an admin.
	r.Use(auth.APIKeyUser(appCfg.APIKey, models.RoleAdmin, logger))

	// CSRF protection for cookie-authenticated writes. The token is served
	// by GET /api/auth/csrf and sent back in the X-CSRF-Token header.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("docuverse_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	trustedOrigins := []string{
		"localhost:8080",
		"localhost:3000",
		"localhost:5173",
		"127.0.0.1:8080",
		"127.0.0.1:3000",
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	r.Use(func(next http.Handler) http.Handler {
		protected := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt(req) {
				next.ServeHTTP(w, req)
				return
			}
			if !secure {
				// Plain HTTP in dev; otherwise the Referer check expects https.
				req = csrf.PlaintextHTTPRequest(req)
			}
			protected.ServeHTTP(w, req)
		})
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Public API
	// ─────────────────────────────────────────────────────────────────────────────

	limit := throttle.PerMinute(appCfg.PublicRateLimit)

	r.Group(func(r chi.Router) {
		r.Use(apicors.Middleware(appCfg.PublicCORSOrigins))

		readerHandler := readerfeature.NewHandler(db, errLog, logger)
		r.Mount("/api/public", readerfeature.Routes(readerHandler, limit))

		searchHandler := searchfeature.NewHandler(db, errLog, logger)
		r.Mount("/api/search", searchfeature.Routes(searchHandler, limit))

		pageViewsHandler := pageviewsfeature.NewHandler(db, errLog, logger)
		r.Mount("/api/page-views", pageviewsfeature.Routes(pageViewsHandler, limit))
	})

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/api/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Auth
	// ─────────────────────────────────────────────────────────────────────────────

	setupHandler := setupfeature.NewHandler(db, sessionMgr, sessionsStore, appCfg.SessionMaxAge, errLog, auditLogger, logger)
	r.Mount("/api/setup", setupfeature.Routes(setupHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, sessionsStore, rateLimitStore, appCfg.SessionMaxAge, errLog, auditLogger, logger)
	r.Mount("/api/auth/login", loginfeature.Routes(loginHandler, limit))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, sessionsStore, logger)
	r.Mount("/api/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// GET /api/auth/validate, /api/auth/me, /api/auth/csrf
	r.Mount("/api/auth", sessionfeature.Routes(sessionMgr))

	// ─────────────────────────────────────────────────────────────────────────────
	// Admin API
	// ─────────────────────────────────────────────────────────────────────────────

	appsHandler := appsfeature.NewHandler(db, deps.FileStorage, errLog, auditLogger, logger)
	r.Mount("/api/apps", appsfeature.Routes(appsHandler, sessionMgr))

	versionsHandler := versionsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/api/versions", versionsfeature.Routes(versionsHandler, sessionMgr))

	languagesHandler := languagesfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/api/languages", languagesfeature.Routes(languagesHandler, sessionMgr))

	pagesHandler := pagesfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/api/pages", pagesfeature.Routes(pagesHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler, sessionMgr))

	settingsHandler := settingsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/api/settings", settingsfeature.Routes(settingsHandler, sessionMgr))

	statsHandler := statsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/stats", statsfeature.Routes(statsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Uploaded logos (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", uploadHeaders(fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath)))
	}

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}

// uploadHeaders stops browsers from sniffing or executing served uploads.
func uploadHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'")
		next.ServeHTTP(w, r)
	})
}
