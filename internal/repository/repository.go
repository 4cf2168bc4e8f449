package repository

import (
	"context"
	"errors"

	"github.com/vkarpenko/telelink/internal/models"
)

var (
	// ErrDuplicateCode is returned by Insert when the short code is already
	// taken. The unique index on short_code is the authoritative guarantee;
	// callers regenerate and retry.
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// PremiumChange is emitted whenever a bot user's premium flag is updated.
type PremiumChange struct {
	TelegramID string
	IsPremium  bool
}

// LinkRepository persists shortened links. Click counting is an atomic
// increment at the store, never read-modify-write in application code.
type LinkRepository interface {
	Insert(ctx context.Context, link *models.Link) error
	GetByCode(ctx context.Context, shortCode string) (*models.Link, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	GetByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	UpdateOriginalURL(ctx context.Context, id, ownerID, originalURL string) (*models.Link, error)
}

// BotUserRepository persists Telegram bot users keyed by their telegram id.
type BotUserRepository interface {
	GetByTelegramID(ctx context.Context, telegramID string) (*models.BotUser, error)
	// Upsert creates the user on first contact and refreshes display names
	// on subsequent calls. Premium flag and counters are never reset.
	Upsert(ctx context.Context, user *models.BotUser) (*models.BotUser, error)
	IncrementUrlsCreated(ctx context.Context, telegramID string) error
	SetPremium(ctx context.Context, telegramID string, isPremium bool) (*models.BotUser, error)
	ListUsers(ctx context.Context) ([]models.BotUser, error)
	// WatchPremiumChanges returns a channel of premium-flag updates. The
	// channel is closed when ctx is cancelled.
	WatchPremiumChanges(ctx context.Context) (<-chan PremiumChange, error)
}
