package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/manyidi1774/LegalBuddy/internal/session"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
	"github.com/manyidi1774/LegalBuddy/pkg/metrics"
)

// Session attaches the request's session owner to the context, creating a
// session and setting its cookie when the request has none. If the session
// store fails the request continues without an owner.
func Session(manager *session.Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, created, err := manager.Resolve(r.Context(), r)
			if err != nil {
				log.Warn("session unavailable, continuing as anonymous",
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if created {
				cookie, err := manager.Cookie(s)
				if err != nil {
					log.Error("failed to issue session cookie", zap.Error(err))
				} else {
					http.SetCookie(w, cookie)
					metrics.SessionsCreatedTotal.Inc()
				}
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), s.OwnerID)))
		})
	}
}
