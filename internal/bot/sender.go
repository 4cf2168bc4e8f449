package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender delivers a text message to a chat. Delivery is fire-and-forget:
// implementations log failures instead of propagating them.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string)
}

// Telegram wraps the go-telegram bot client. One instance per process,
// constructed at startup and torn down with the root context.
type Telegram struct {
	bot    *tgbot.Bot
	logger *zap.Logger
}

func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	b, err := tgbot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{
		bot:    b,
		logger: logger,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, text string) {
	_, err := t.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		t.logger.Error("Failed to send telegram message",
			zap.Int64("chatID", chatID),
			zap.Error(err))
	}
}

// Attach routes every incoming text message to the dispatcher. Used in
// long-polling mode; in webhook mode the HTTP handler feeds the dispatcher.
func (t *Telegram) Attach(d *Dispatcher) {
	t.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypeContains,
		func(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
			d.Dispatch(ctx, update)
		})
}

// Start begins long polling. Blocks until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) {
	t.logger.Info("Starting telegram bot polling")
	t.bot.Start(ctx)
	t.logger.Info("Telegram bot polling stopped")
}
