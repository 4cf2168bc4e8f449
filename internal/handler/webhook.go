package handler

import (
	"encoding/json"
	"net/http"

	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// WebhookHandler receives Telegram updates. It always answers 200 for
// parseable updates so the transport does not redeliver; the dispatcher
// swallows handler-level faults itself.
func (h *Handler) WebhookHandler(rw http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		http.Error(rw, "Bot is not configured", http.StatusServiceUnavailable)
		return
	}

	var update tgmodels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("Failed to decode webhook update", zap.Error(err))
		http.Error(rw, "Invalid update", http.StatusBadRequest)
		return
	}

	h.dispatcher.Dispatch(r.Context(), &update)

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte(`{"status":"ok"}`))
}
