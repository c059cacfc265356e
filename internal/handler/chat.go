// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manyidi1774/LegalBuddy/internal/middleware"
	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/internal/service"
	"github.com/manyidi1774/LegalBuddy/internal/store"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
)

const (
	msgInternalError = "Internal server error"
	msgChatNotFound  = "Chat not found"
	msgInvalidBody   = "invalid request body"
)

// ChatHandler handles the chat and chat document endpoints.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the chat endpoints on r.
func (h *ChatHandler) Routes(r chi.Router) {
	r.Post("/chat", h.Send)
	r.Get("/chat-history", h.History)
	r.Get("/chats", h.List)
	r.Post("/chats", h.Create)
	r.Put("/chats/{chatId}", h.Rename)
	r.Delete("/chats/{chatId}", h.Delete)
	r.Get("/clear-chats", h.ClearAll)
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.OwnerID(ctx)

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.service.Send(ctx, ownerID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.requestLogger(r).Error("failed to send message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, model.SendMessageResponse{Response: reply})
}

// History handles GET /api/chat-history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.History(r.Context(), middleware.OwnerID(r.Context()))
	if err != nil {
		h.requestLogger(r).Error("failed to load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// List handles GET /api/chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListChats(r.Context(), middleware.OwnerID(r.Context()))
	if err != nil {
		h.requestLogger(r).Error("failed to list chats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load chats")
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// Create handles POST /api/chats
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RenameChatRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.CreateChat(r.Context(), middleware.OwnerID(r.Context()), req.Title)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTitle) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.requestLogger(r).Error("failed to create chat", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// Rename handles PUT /api/chats/{chatId}
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	if err := middleware.ValidateChatID(chatID); err != nil {
		writeError(w, http.StatusNotFound, msgChatNotFound)
		return
	}

	var req model.RenameChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.RenameChat(r.Context(), middleware.OwnerID(r.Context()), chatID, req.Title)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, model.RenameChatResponse{Success: true, Chat: doc})
	case errors.Is(err, service.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, msgChatNotFound)
	default:
		h.requestLogger(r).Error("failed to rename chat", zap.String("chat_id", chatID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update chat")
	}
}

// Delete handles DELETE /api/chats/{chatId}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	if err := middleware.ValidateChatID(chatID); err != nil {
		writeError(w, http.StatusNotFound, msgChatNotFound)
		return
	}

	err := h.service.DeleteChat(r.Context(), middleware.OwnerID(r.Context()), chatID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, model.DeleteChatResponse{Success: true})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, msgChatNotFound)
	default:
		h.requestLogger(r).Error("failed to delete chat", zap.String("chat_id", chatID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete chat")
	}
}

// ClearAll handles GET /api/clear-chats. It removes the chats of every
// owner and is not scoped to the caller.
func (h *ChatHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearAll(r.Context())
	if err != nil {
		h.requestLogger(r).Error("failed to clear chats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to clear chats")
		return
	}

	writeJSON(w, http.StatusOK, model.ClearChatsResponse{Message: "All chats cleared", Deleted: n})
}

func (h *ChatHandler) requestLogger(r *http.Request) *logger.Logger {
	return h.logger.WithRequest(middleware.GetCorrelationID(r.Context()), middleware.OwnerID(r.Context()))
}
