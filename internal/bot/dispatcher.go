package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/repository"
	"github.com/vkarpenko/telelink/internal/service"
)

const (
	msgAlreadyPremium = "✨ You are already a premium user!"
	msgStartFirst     = "Please start the bot first with /start"
	msgInvalidURL     = "❌ Please provide a valid URL"
	msgQuotaExceeded  = "🔒 Free users can only create 3 short URLs.\n" +
		"Use /premium to upgrade and create unlimited URLs!"
	msgInvalidCommand = "❌ Invalid command. Use /start to see available commands."
	msgApology        = "Sorry, something went wrong. Please try again later."

	msgPremiumInstructions = "To get premium status:\n\n" +
		"1. Contact @YourAdminUsername\n" +
		"2. Send payment proof\n" +
		"3. Get unlimited URL shortening!\n\n" +
		"Premium benefits:\n" +
		"✓ Unlimited URL shortening\n" +
		"✓ URL click statistics\n" +
		"✓ Custom short codes (coming soon)"
)

// Dispatcher parses inbound bot commands and delegates to the shortener
// service. It holds no state of its own; a failing handler answers with a
// generic apology and never lets the fault escape, so one user's bad luck
// does not affect the next update.
type Dispatcher struct {
	service *service.ShortenerService
	sender  Sender
	logger  *zap.Logger
}

func NewDispatcher(svc *service.ShortenerService, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		service: svc,
		sender:  sender,
		logger:  logger,
	}
}

// Dispatch routes one update. Commands are matched by prefix in precedence
// order: /start, /premium, /stats, /shorten. Unknown slash-commands get an
// invalid-command reply; plain text is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, update *tgmodels.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	text := msg.Text
	chatID := msg.Chat.ID
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	switch {
	case strings.HasPrefix(text, "/start"):
		d.handleStart(ctx, chatID, telegramID, msg.From)
	case strings.HasPrefix(text, "/premium"):
		d.handlePremium(ctx, chatID, telegramID)
	case strings.HasPrefix(text, "/stats"):
		d.handleStats(ctx, chatID, telegramID)
	case strings.HasPrefix(text, "/shorten"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/shorten"))
		d.handleShorten(ctx, chatID, telegramID, arg)
	case strings.HasPrefix(text, "/"):
		d.sender.Send(ctx, chatID, msgInvalidCommand)
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, chatID int64, telegramID string, from *tgmodels.User) {
	user, err := d.service.RegisterBotUser(ctx, telegramID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		d.logger.Error("Failed to register bot user",
			zap.String("telegramID", telegramID),
			zap.Error(err))
		d.sender.Send(ctx, chatID, msgApology)
		return
	}

	tierLine := "🔒 Upgrade to premium to create unlimited short URLs!"
	if user.IsPremium {
		tierLine = "✨ You are a premium user!"
	}

	message := "Welcome to URL Shortener Bot! 🚀\n\n" +
		"Commands:\n" +
		"/shorten <url> - Create a short URL\n" +
		"/stats - View your URL statistics\n" +
		"/premium - Get premium status\n\n" +
		tierLine

	d.sender.Send(ctx, chatID, message)
}

func (d *Dispatcher) handlePremium(ctx context.Context, chatID int64, telegramID string) {
	user, err := d.service.GetBotUser(ctx, telegramID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		d.logger.Error("Failed to load bot user",
			zap.String("telegramID", telegramID),
			zap.Error(err))
		d.sender.Send(ctx, chatID, msgApology)
		return
	}

	if user != nil && user.IsPremium {
		d.sender.Send(ctx, chatID, msgAlreadyPremium)
		return
	}

	d.sender.Send(ctx, chatID, msgPremiumInstructions)
}

func (d *Dispatcher) handleStats(ctx context.Context, chatID int64, telegramID string) {
	stats, err := d.service.UserStats(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.sender.Send(ctx, chatID, msgStartFirst)
			return
		}
		d.logger.Error("Failed to load user stats",
			zap.String("telegramID", telegramID),
			zap.Error(err))
		d.sender.Send(ctx, chatID, msgApology)
		return
	}

	tier := "Free"
	if stats.IsPremium {
		tier = "Premium ✨"
	}

	message := fmt.Sprintf("📊 Your Statistics\n\n"+
		"URLs Created: %d\n"+
		"Total Clicks: %d\n"+
		"Account Type: %s",
		stats.UrlsCreated, stats.TotalClicks, tier)

	d.sender.Send(ctx, chatID, message)
}

func (d *Dispatcher) handleShorten(ctx context.Context, chatID int64, telegramID, originalURL string) {
	user, err := d.service.GetBotUser(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.sender.Send(ctx, chatID, msgStartFirst)
			return
		}
		d.logger.Error("Failed to load bot user",
			zap.String("telegramID", telegramID),
			zap.Error(err))
		d.sender.Send(ctx, chatID, msgApology)
		return
	}

	link, remaining, err := d.service.CreateBotLink(ctx, user, originalURL)
	switch {
	case errors.Is(err, service.ErrEmptyURL), errors.Is(err, service.ErrInvalidURL):
		d.sender.Send(ctx, chatID, msgInvalidURL)
		return
	case errors.Is(err, service.ErrQuotaExceeded):
		d.sender.Send(ctx, chatID, msgQuotaExceeded)
		return
	case err != nil:
		d.logger.Error("Failed to create bot link",
			zap.String("telegramID", telegramID),
			zap.Error(err))
		d.sender.Send(ctx, chatID, msgApology)
		return
	}

	message := fmt.Sprintf("✅ URL shortened successfully!\n\n"+
		"Original: %s\n"+
		"Short: %s\n\n",
		link.OriginalURL, d.service.ShortURL(link.ShortCode))
	if remaining >= 0 {
		message += fmt.Sprintf("%d free URLs remaining", remaining)
	}

	d.sender.Send(ctx, chatID, message)
}
