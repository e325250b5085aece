package resolvers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/writewithwrabit/calorietrack/auth"
	"github.com/writewithwrabit/calorietrack/calendar"
	"github.com/writewithwrabit/calorietrack/logging"
	"github.com/writewithwrabit/calorietrack/models"
	"github.com/writewithwrabit/calorietrack/store"
)

// Error payloads. Causes are logged, never sent to the client.
const (
	msgInvalidInput = "invalid input"
	msgNotFound     = "not found"
	msgServerError  = "server error"
)

// EntryStore is the persistence the JSON API needs.
type EntryStore interface {
	Create(ctx context.Context, kind models.Kind, userID string, in models.EntryInput) (*models.Entry, error)
	List(ctx context.Context, kind models.Kind, userID string) ([]*models.Entry, error)
	Get(ctx context.Context, kind models.Kind, userID, id string) (*models.Entry, error)
	Update(ctx context.Context, kind models.Kind, userID, id string, in models.EntryInput) (*models.Entry, error)
	Delete(ctx context.Context, kind models.Kind, userID, id string) error
	Ping(ctx context.Context) error
}

// Dashboard produces the daily series for a range.
type Dashboard interface {
	Aggregate(ctx context.Context, rng calendar.Range, userID string) (*models.DailySeries, error)
}

type Resolver struct {
	entries   EntryStore
	dashboard Dashboard
	loc       *time.Location
	log       logging.Logger
	now       func() time.Time
}

func New(entries EntryStore, dashboard Dashboard, loc *time.Location, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{
		entries:   entries,
		dashboard: dashboard,
		loc:       loc,
		log:       logger,
		now:       time.Now,
	}
}

// Mounter registers routes on a router.
type Mounter interface {
	Mount(router chi.Router)
}

// Options configures the middleware stack shared by the API and the pages.
type Options struct {
	UserID         string
	AllowedOrigins []string
	Logger         logging.Logger
}

// NewRouter builds the root router: request ids, access logging, panic
// recovery, CORS and user scoping, then every mounter's routes.
func NewRouter(opts Options, mounters ...Mounter) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	router.Use(auth.Middleware(opts.UserID))

	for _, m := range mounters {
		m.Mount(router)
	}
	return router
}

// Mount registers the JSON API.
func (r *Resolver) Mount(router chi.Router) {
	router.Get("/healthz", r.Health)

	router.Route("/api", func(api chi.Router) {
		api.Get("/dashboard", r.Dashboard)
		api.Route("/records", r.entryRoutes(models.Intake))
		api.Route("/exercises", r.entryRoutes(models.Exertion))
	})
}

func (r *Resolver) entryRoutes(kind models.Kind) func(chi.Router) {
	return func(router chi.Router) {
		router.Get("/", r.ListEntries(kind))
		router.Post("/", r.CreateEntry(kind))
		router.Get("/{id}", r.GetEntry(kind))
		router.Put("/{id}", r.UpdateEntry(kind))
		router.Delete("/{id}", r.DeleteEntry(kind))
	}
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// user reads the scoped user id; a missing one means the middleware was
// not installed.
func (r *Resolver) user(w http.ResponseWriter, req *http.Request) (string, bool) {
	userID, ok := auth.ForContext(req.Context())
	if !ok {
		r.log.Error("request without user scope", "path", req.URL.Path)
		jsonError(w, msgServerError, http.StatusInternalServerError)
	}
	return userID, ok
}

// fail maps a store error onto the fixed error vocabulary.
func (r *Resolver) fail(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}
	r.log.Error("request failed",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", middleware.GetReqID(req.Context()),
		"error", err,
	)
	jsonError(w, msgServerError, http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonOK(w, code, map[string]string{"error": msg})
}
