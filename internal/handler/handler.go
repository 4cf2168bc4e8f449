package handler

import (
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/bot"
	"github.com/vkarpenko/telelink/internal/service"
)

type Handler struct {
	service    *service.ShortenerService
	dispatcher *bot.Dispatcher
	logger     *zap.Logger
}

// NewHandler wires the HTTP surface. dispatcher may be nil when the bot is
// not configured; the webhook endpoint then answers 503.
func NewHandler(svc *service.ShortenerService, dispatcher *bot.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		service:    svc,
		dispatcher: dispatcher,
		logger:     logger,
	}
}
