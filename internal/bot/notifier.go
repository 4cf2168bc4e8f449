package bot

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/repository"
)

const (
	msgPremiumGranted = "🎉 Congratulations! Your account has been upgraded to premium!\n\n" +
		"You can now create unlimited short URLs."
	msgPremiumRevoked = "⚠️ Your premium status has been removed. " +
		"You are now limited to creating 3 short URLs."
)

// Notifier pushes a message to a user whenever their premium flag changes.
// It observes the repository's change feed and is independent of the
// command dispatcher.
type Notifier struct {
	users  repository.BotUserRepository
	sender Sender
	logger *zap.Logger
}

func NewNotifier(users repository.BotUserRepository, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{
		users:  users,
		sender: sender,
		logger: logger,
	}
}

// Run consumes premium changes until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	changes, err := n.users.WatchPremiumChanges(ctx)
	if err != nil {
		return err
	}

	n.logger.Info("Premium change notifier started")

	for change := range changes {
		chatID, err := strconv.ParseInt(change.TelegramID, 10, 64)
		if err != nil {
			n.logger.Warn("Premium change for non-numeric telegram id",
				zap.String("telegramID", change.TelegramID))
			continue
		}

		message := msgPremiumRevoked
		if change.IsPremium {
			message = msgPremiumGranted
		}

		n.sender.Send(ctx, chatID, message)
	}

	n.logger.Info("Premium change notifier stopped")
	return nil
}
