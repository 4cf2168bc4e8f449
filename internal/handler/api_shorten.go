package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/middleware"
	"github.com/vkarpenko/telelink/internal/models"
	"github.com/vkarpenko/telelink/internal/service"
)

func (h *Handler) APIShortenHandler(rw http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var req models.ShortenRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		http.Error(rw, "URL cannot be empty", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	link, err := h.service.CreateShortURL(ctx, req.URL, userID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) || errors.Is(err, service.ErrInvalidURL) {
			http.Error(rw, "Invalid URL", http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to create short URL", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := models.ShortenResponse{
		Result: h.service.ShortURL(link.ShortCode),
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode shorten response", zap.Error(err))
	}
}
