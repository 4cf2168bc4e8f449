package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/middleware"
	"github.com/vkarpenko/telelink/internal/models"
	"github.com/vkarpenko/telelink/internal/repository"
	"github.com/vkarpenko/telelink/internal/service"
)

func (h *Handler) GetUserURLsHandler(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	userLinks, err := h.service.UserLinks(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get user links",
			zap.String("userID", userID),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(userLinks) == 0 {
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(rw).Encode(userLinks); err != nil {
		h.logger.Error("Failed to encode user links response", zap.Error(err))
	}
}

// UpdateUserURLHandler edits an owned link's target. Links owned by someone
// else are indistinguishable from missing ones.
func (h *Handler) UpdateUserURLHandler(rw http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.UpdateLinkRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.ID == "" || req.OriginalURL == "" {
		http.Error(rw, "ID and original URL are required", http.StatusBadRequest)
		return
	}

	link, err := h.service.UpdateLink(ctx, userID, req.ID, req.OriginalURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyURL), errors.Is(err, service.ErrInvalidURL):
			http.Error(rw, "Invalid URL", http.StatusBadRequest)
		case errors.Is(err, repository.ErrNotFound):
			http.Error(rw, "Not Found", http.StatusNotFound)
		default:
			h.logger.Error("Failed to update link",
				zap.String("userID", userID),
				zap.String("linkID", req.ID),
				zap.Error(err))
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(rw).Encode(link); err != nil {
		h.logger.Error("Failed to encode link response", zap.Error(err))
	}
}
