package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/models"
	"github.com/vkarpenko/telelink/internal/repository"
)

func (h *Handler) ListBotUsersHandler(rw http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListBotUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list bot users", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(rw).Encode(users); err != nil {
		h.logger.Error("Failed to encode bot users response", zap.Error(err))
	}
}

// SetPremiumHandler toggles a bot user's premium flag. The repository emits
// a premium-change event consumed by the notifier.
func (h *Handler) SetPremiumHandler(rw http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var req models.SetPremiumRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.TelegramID == "" {
		http.Error(rw, "Telegram ID is required", http.StatusBadRequest)
		return
	}

	user, err := h.service.SetPremium(r.Context(), req.TelegramID, req.IsPremium)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(rw, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to set premium flag",
			zap.String("telegramID", req.TelegramID),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(rw).Encode(user); err != nil {
		h.logger.Error("Failed to encode bot user response", zap.Error(err))
	}
}
