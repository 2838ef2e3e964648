package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"songforge/internal/domain"
	"songforge/internal/infra"
	"songforge/internal/middleware"
	"songforge/internal/orders"
	"songforge/internal/songgen"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Cfg        *infra.Config
	Logger     zerolog.Logger
	SQL        infra.SQLExecutor
	Orders     *orders.Service
	Dispatcher *songgen.Dispatcher
	Reconciler *songgen.Reconciler
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, sql infra.SQLExecutor, svc *orders.Service, dispatcher *songgen.Dispatcher, reconciler *songgen.Reconciler) *App {
	return &App{
		Cfg:        cfg,
		Logger:     logger,
		SQL:        sql,
		Orders:     svc,
		Dispatcher: dispatcher,
		Reconciler: reconciler,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps domain sentinel errors onto HTTP error responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var transition *orders.TransitionError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &transition):
		a.error(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "provider_failure", "generation provider unavailable")
	default:
		a.Logger.Error().Err(err).Msg("unhandled handler error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
