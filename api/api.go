package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-openapi/runtime/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfarer/wayfarer/accounts"
	"github.com/wayfarer/wayfarer/chatbot"
	"github.com/wayfarer/wayfarer/comments"
	"github.com/wayfarer/wayfarer/recommend"
	"github.com/wayfarer/wayfarer/session"
)

const (
	defaultTopN          = 5
	defaultAuthPerMinute = 20
)

// API holds the dependencies needed by the HTTP handlers.
type API struct {
	accounts  *accounts.Store
	sessions  *session.Binder
	recommend *recommend.Handle
	chatbot   *chatbot.Responder
	comments  *comments.Board

	pages         http.Handler
	logger        *slog.Logger
	audit         *auditLogger
	alertFn       AlertFunc
	lockout       *loginLockout
	defaultTopN   int
	authPerMinute int
}

//go:embed openapi.yaml
var openapiSpec []byte

// Deps are the components the API dispatches to.
type Deps struct {
	Accounts  *accounts.Store
	Sessions  *session.Binder
	Recommend *recommend.Handle
	Chatbot   *chatbot.Responder
	Comments  *comments.Board
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request and audit logs.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithPages serves the static page catalogue for every path the API does
// not claim.
func WithPages(h http.Handler) Option {
	return func(a *API) {
		a.pages = h
	}
}

// WithDefaultTopN sets the result count used when /recommend has no topn.
func WithDefaultTopN(n int) Option {
	return func(a *API) {
		if n > 0 {
			a.defaultTopN = n
		}
	}
}

// WithAuthRateLimit bounds signup and login requests per client IP per
// minute. Zero disables the limit.
func WithAuthRateLimit(perMinute int) Option {
	return func(a *API) {
		a.authPerMinute = perMinute
	}
}

// WithAlertFunc registers a callback for security anomaly alerts.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// New creates a new API instance.
func New(deps Deps, opts ...Option) *API {
	a := &API{
		accounts:      deps.Accounts,
		sessions:      deps.Sessions,
		recommend:     deps.Recommend,
		chatbot:       deps.Chatbot,
		comments:      deps.Comments,
		lockout:       newLoginLockout(),
		defaultTopN:   defaultTopN,
		authPerMinute: defaultAuthPerMinute,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.audit = newAuditLogger(a.logger, a.alertFn)
	if a.chatbot == nil {
		a.chatbot = chatbot.New()
	}
	return a
}

// Router returns a chi.Router with the middleware stack and every route
// mounted at the root.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(a.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(Instrument)
	r.Use(a.CSRFMiddleware)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(openapiSpec)
	})
	r.With(docsHeaders).Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, http.NotFoundHandler()))
	r.With(docsHeaders).Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, http.NotFoundHandler()))

	r.Get("/health", a.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		limited := r.With(a.authRateLimiter())
		limited.Post("/signup", a.Signup)
		limited.Post("/login", a.Login)
		r.Get("/whoami", a.WhoAmI)
		r.Post("/logout", a.Logout)
		r.With(a.AuthMiddleware).Get("/profile", a.Profile)
	})

	r.Get("/recommend", a.Recommend)
	r.Post("/chatbot", a.Chatbot)

	r.With(a.AuthMiddleware).Get("/comments", a.ListComments)
	r.With(a.AuthMiddleware).Post("/comments", a.PostComment)

	if a.pages != nil {
		r.Handle("/*", a.pages)
	} else {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
	}
	return r
}

// authRateLimiter limits by client IP. RealIP runs first, so RemoteAddr
// already reflects X-Forwarded-For when present.
func (a *API) authRateLimiter() func(http.Handler) http.Handler {
	if a.authPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(a.authPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			a.audit.logFailure(AuditRateLimited, r, "auth rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "too many requests; try again later")
		}),
	)
}
