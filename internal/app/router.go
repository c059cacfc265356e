package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"github.com/manyidi1774/LegalBuddy/internal/config"
	"github.com/manyidi1774/LegalBuddy/internal/handler"
	"github.com/manyidi1774/LegalBuddy/internal/middleware"
	"github.com/manyidi1774/LegalBuddy/internal/session"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
)

// RouterParams are the dependencies of the HTTP router.
type RouterParams struct {
	dig.In

	Config      *config.Config
	Logger      *logger.Logger
	Sessions    *session.Manager
	Chats       *handler.ChatHandler
	Preferences *handler.PreferencesHandler
	Health      *handler.HealthHandler
}

// NewRouter builds the HTTP routes.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(p.Config.CORSAllowedOrigins))

	// Operational endpoints carry no session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Logging(p.Logger))
		r.Use(chimiddleware.Recoverer)

		r.Get("/health", p.Health.Health)
		r.Get("/ready", p.Health.Ready)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(p.Sessions, p.Logger))
		r.Use(middleware.Logging(p.Logger))
		r.Use(chimiddleware.Recoverer)

		p.Chats.Routes(r)
		p.Preferences.Routes(r)
	})

	return r
}
