package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"songforge/internal/http/handlers"
	"songforge/internal/middleware"
)

// RouterOptions carries the cross-cutting pieces the router wires in.
type RouterOptions struct {
	JWTSecret       string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	// Provider push channel. Authenticated by task id lookup, not JWT.
	r.Post("/v1/audio/callback", app.AudioCallback)

	r.Route("/v1/orders", func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		r.Post("/", app.OrdersCreate)
		r.Get("/", app.OrdersList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.OrdersGet)
			r.Put("/", app.OrdersUpdate)
			r.Post("/lyrics", app.OrdersRequestLyrics)
			r.Get("/lyrics", app.LyricsGet)
			r.Post("/lyrics/edit", app.LyricsBeginEdit)
			r.Put("/lyrics", app.LyricsSubmit)
			r.Post("/approve", app.OrdersApprove)
			r.Post("/pay", app.OrdersPay)
			r.Post("/audio", app.OrdersStartAudio)
			r.Get("/audio", app.OrdersAssets)
			r.Post("/cancel", app.OrdersCancel)
		})
	})

	return r
}
