// Package httpapi отдаёт сервисы репетиторства по HTTP/JSON.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
	"github.com/Freeeeeet/tutoring_toolbox/internal/obs"
	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

const serviceName = "tutoring"

// ReadyProbe — простая проверка готовности (ping БД).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps зависимости HTTP слоя.
type Deps struct {
	Requests  *service.RequestService
	Sessions  *service.SessionService
	Directory *service.DirectoryService
	Auth      *auth.Authenticator
	Ready     ReadyProbe
	Logger    *zap.Logger
	Version   string

	RateLimitRPS   int
	RateLimitBurst int
}

// API — HTTP слой.
type API struct {
	requests  *service.RequestService
	sessions  *service.SessionService
	directory *service.DirectoryService
	auth      *auth.Authenticator
	ready     ReadyProbe
	logger    *zap.Logger
	version   string
	validate  *validator.Validate
	limiter   *rateLimiter
}

func New(d Deps) *API {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		requests:  d.Requests,
		sessions:  d.Sessions,
		directory: d.Directory,
		auth:      d.Auth,
		ready:     d.Ready,
		logger:    logger,
		version:   d.Version,
		validate:  newValidator(),
		limiter:   newRateLimiter(d.RateLimitRPS, d.RateLimitBurst),
	}
}

// Handler собирает роутер.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(obs.Instrument)
	r.Use(a.accessLog)

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.readyz)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.limiter.middleware)
		r.Use(a.authenticate)

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", a.listRequests)
			r.Post("/", a.createRequest)
			r.Get("/{id}", a.getRequest)
			r.Patch("/{id}", a.patchRequest)
			r.Delete("/{id}", a.deleteRequest)
			r.Put("/{id}/assign", a.assignRequest)
			r.Put("/{id}/deny", a.denyRequest)
			r.Patch("/{id}/tutor-response", a.tutorResponse)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", a.listSessions)
			r.Post("/", a.createSession)
			r.Get("/{id}", a.getSession)
			r.Patch("/{id}", a.rescheduleSession)
			r.Patch("/{id}/complete", a.completeSession)
		})

		r.Get("/tutors/assignable", a.assignableTutors)
		r.Get("/tutors/{id}/quota", a.tutorQuota)
		r.Get("/courses", a.listCourses)
	})

	return r
}

func (a *API) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) readyz(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
