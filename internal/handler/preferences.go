package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manyidi1774/LegalBuddy/internal/middleware"
	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/internal/service"
	"github.com/manyidi1774/LegalBuddy/internal/store"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
)

// PreferencesHandler handles the preferences endpoints.
type PreferencesHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(svc *service.ChatService, log *logger.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the preferences endpoints on r.
func (h *PreferencesHandler) Routes(r chi.Router) {
	r.Get("/preferences", h.Get)
	r.Post("/preferences", h.Save)
}

// Save handles POST /api/preferences
func (h *PreferencesHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := middleware.ValidateLanguage(req.Language); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SavePreferences(ctx, middleware.OwnerID(ctx), req); err != nil {
		if errors.Is(err, service.ErrInvalidPreferences) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save preferences",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/preferences
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prefs, err := h.service.GetPreferences(ctx, middleware.OwnerID(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preferences not found")
			return
		}
		h.logger.Error("failed to load preferences",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}
