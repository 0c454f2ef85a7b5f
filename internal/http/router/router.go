package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/photoshare/photoshare-api/internal/health"
	"github.com/photoshare/photoshare-api/internal/http/handler"
	"github.com/photoshare/photoshare-api/internal/http/middleware"
	"github.com/photoshare/photoshare-api/internal/http/response"
	"github.com/photoshare/photoshare-api/internal/security"
)

// GlobalRateLimiterFunc and AuthRateLimiterFunc are distinct middleware
// types so the two rate-limiter bindings stay distinguishable during
// dependency injection.
type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	RegisterHandler   *handler.RegisterHandler
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	JWTManager        *security.JWTManager
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	RegisterBodyLimit int64
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}

	registerBodyLimit := dep.RegisterBodyLimit
	if registerBodyLimit <= 0 {
		registerBodyLimit = 512 << 20
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.ErrorWithDetails(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/users", func(r chi.Router) {
		// Registration carries multipart photo payloads, so these two
		// routes get the large body cap instead of the JSON default.
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(registerBodyLimit))
			r.With(authLimiter).Post("/register", dep.RegisterHandler.RegisterLocal)
			r.With(authLimiter).Post("/register/aws", dep.RegisterHandler.RegisterCloud)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(1 << 20))
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(middleware.AuthMiddleware(dep.JWTManager)).Get("/me", dep.UserHandler.Me)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
