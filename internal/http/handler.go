package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"team-roster-service/internal/metrics"
	"team-roster-service/internal/model"
	"team-roster-service/internal/service"
)

// RosterService: чтение и обновление состава команды.
type RosterService interface {
	FetchRoster(ctx context.Context, actorID, collectiveID string) (model.RosterSnapshot, error)
	UpdateRoster(ctx context.Context, actorID, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error)
}

// PersonService: поиск людей для выбора в состав.
type PersonService interface {
	Search(ctx context.Context, actorID, query, personType string, exclude []string) ([]model.Person, error)
}

// UserService: данные текущего пользователя.
type UserService interface {
	Me(ctx context.Context, userID string) (model.CurrentUser, error)
}

// TokenVerifier проверяет bearer-токен и возвращает идентификатор пользователя.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Handler struct {
	Rosters RosterService
	People  PersonService
	Users   UserService
	Tokens  TokenVerifier
	Log     *slog.Logger

	metrics     *metrics.Metrics
	corsOrigins []string
}

// Option настраивает Handler.
type Option func(*Handler)

// WithMetrics включает сбор метрик и маршрут /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCORSOrigins задаёт разрешённые источники CORS.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

func NewHandler(rosters RosterService, people PersonService, users UserService, tokens TokenVerifier, log *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		Rosters: rosters,
		People:  people,
		Users:   users,
		Tokens:  tokens,
		Log:     log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	if len(h.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/me", h.handleMe)

		r.Route("/collectives/{collectiveID}/roster", func(r chi.Router) {
			r.Get("/", h.handleRosterGet)
			r.Put("/", h.handleRosterUpdate)
		})

		r.Get("/people/search", h.handlePeopleSearch)
	})

	return r
}

func (h *Handler) writeError(w http.ResponseWriter, handlerName string, err error) {
	var appErr *service.AppError
	if !errors.As(err, &appErr) {
		appErr = &service.AppError{
			Code:    "INTERNAL",
			Message: "internal error",
			Status:  http.StatusInternalServerError,
			Err:     err,
		}
	}

	level := slog.LevelWarn
	if appErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.Log.Log(context.Background(), level, "handler error",
		slog.String("handler", handlerName),
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.Any("err", appErr.Err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)

	resp := errorResponse{}
	resp.Error.Code = appErr.Code
	resp.Error.Message = appErr.Message
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
