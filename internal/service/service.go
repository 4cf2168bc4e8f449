package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/models"
	"github.com/vkarpenko/telelink/internal/repository"
)

var (
	ErrEmptyURL      = errors.New("empty url")
	ErrInvalidURL    = errors.New("invalid url")
	ErrQuotaExceeded = errors.New("free tier quota exceeded")
	ErrCodeExhausted = errors.New("failed to generate unique short code")
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// maxAttempts bounds the regenerate-on-collision loop. With a 62^6 code
	// space, exhausting it means something is badly wrong with the store.
	maxAttempts = 10
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ShortenerService struct {
	baseURL string
	links   repository.LinkRepository
	users   repository.BotUserRepository
	pinger  Pinger
	logger  *zap.Logger
}

func NewShortenerService(baseURL string, links repository.LinkRepository, users repository.BotUserRepository, pinger Pinger, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		baseURL: baseURL,
		links:   links,
		users:   users,
		pinger:  pinger,
		logger:  logger,
	}
}

// GenerateShortCode returns a random 6-character base62 code. Uniqueness is
// not guaranteed here; the store's unique index is the authority and
// CreateShortURL retries on conflict.
func (s *ShortenerService) GenerateShortCode() string {
	code := make([]byte, codeLength)
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand only fails if the platform entropy source is broken.
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

// CreateShortURL validates the URL and persists a new link under a fresh
// short code. The existence probe is an optimization; the insert itself may
// still hit a duplicate under concurrency, in which case a new code is
// generated, up to maxAttempts.
func (s *ShortenerService) CreateShortURL(ctx context.Context, originalURL, ownerID string) (*models.Link, error) {
	if originalURL == "" {
		s.logger.Warn("Attempt to create short URL for empty string")
		return nil, ErrEmptyURL
	}

	if err := validateURL(originalURL); err != nil {
		s.logger.Warn("Invalid URL provided", zap.String("url", originalURL), zap.Error(err))
		return nil, ErrInvalidURL
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		shortCode := s.GenerateShortCode()

		if _, err := s.links.GetByCode(ctx, shortCode); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("probe short code: %w", err)
		}

		link := &models.Link{
			ID:          uuid.New().String(),
			OriginalURL: originalURL,
			ShortCode:   shortCode,
			CreatedBy:   ownerID,
			CreatedAt:   time.Now().UTC(),
		}

		err := s.links.Insert(ctx, link)
		if errors.Is(err, repository.ErrDuplicateCode) {
			s.logger.Info("Short code collision on insert, regenerating",
				zap.String("shortCode", shortCode),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			s.logger.Error("Failed to insert link", zap.Error(err))
			return nil, err
		}

		return link, nil
	}

	s.logger.Error("Failed to generate unique short code",
		zap.Int("maxAttempts", maxAttempts))
	return nil, ErrCodeExhausted
}

// CanCreate reports whether the user may create another link. Premium users
// are uncapped; free users are limited to models.FreeTierLimit. Evaluated
// against live state on every call.
func (s *ShortenerService) CanCreate(user *models.BotUser) bool {
	if user.IsPremium {
		return true
	}
	return user.UrlsCreated < models.FreeTierLimit
}

// CreateBotLink runs the quota gate, creates the link and bumps the user's
// urls_created counter. Returns the remaining free slots (-1 for premium).
// The counter bump is a store-level increment; a concurrent /shorten may
// still slip past the quota check, which is an accepted best-effort bound.
func (s *ShortenerService) CreateBotLink(ctx context.Context, user *models.BotUser, originalURL string) (*models.Link, int64, error) {
	if originalURL == "" {
		return nil, 0, ErrEmptyURL
	}
	if err := validateURL(originalURL); err != nil {
		return nil, 0, ErrInvalidURL
	}

	if !s.CanCreate(user) {
		return nil, 0, ErrQuotaExceeded
	}

	link, err := s.CreateShortURL(ctx, originalURL, user.TelegramID)
	if err != nil {
		return nil, 0, err
	}

	if err := s.users.IncrementUrlsCreated(ctx, user.TelegramID); err != nil {
		s.logger.Error("Failed to increment urls_created",
			zap.String("telegramID", user.TelegramID),
			zap.Error(err))
		return nil, 0, err
	}

	remaining := int64(-1)
	if !user.IsPremium {
		remaining = models.FreeTierLimit - (user.UrlsCreated + 1)
	}

	return link, remaining, nil
}

// Resolve maps a short code to its target URL, counting the click. A miss
// returns repository.ErrNotFound and mutates nothing.
func (s *ShortenerService) Resolve(ctx context.Context, shortCode string) (string, error) {
	link, err := s.links.GetByCode(ctx, shortCode)
	if err != nil {
		return "", err
	}

	if err := s.links.IncrementClicks(ctx, shortCode); err != nil {
		s.logger.Error("Failed to increment clicks",
			zap.String("shortCode", shortCode),
			zap.Error(err))
		return "", err
	}

	return link.OriginalURL, nil
}

// ShortURL joins the configured base URL with a short code.
func (s *ShortenerService) ShortURL(shortCode string) string {
	full, _ := url.JoinPath(s.baseURL, shortCode)
	return full
}

func (s *ShortenerService) UserLinks(ctx context.Context, ownerID string) ([]models.UserLink, error) {
	links, err := s.links.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	userLinks := make([]models.UserLink, 0, len(links))
	for _, link := range links {
		userLinks = append(userLinks, models.UserLink{
			ID:          link.ID,
			ShortURL:    s.ShortURL(link.ShortCode),
			OriginalURL: link.OriginalURL,
			Clicks:      link.Clicks,
		})
	}
	return userLinks, nil
}

// UpdateLink changes the target of an owned link. Unknown or foreign links
// surface as repository.ErrNotFound.
func (s *ShortenerService) UpdateLink(ctx context.Context, ownerID, id, originalURL string) (*models.Link, error) {
	if originalURL == "" {
		return nil, ErrEmptyURL
	}
	if err := validateURL(originalURL); err != nil {
		return nil, ErrInvalidURL
	}

	return s.links.UpdateOriginalURL(ctx, id, ownerID, originalURL)
}

// RegisterBotUser upserts a bot user on first contact, refreshing display
// names on repeat calls. Idempotent by telegram id.
func (s *ShortenerService) RegisterBotUser(ctx context.Context, telegramID, username, firstName, lastName string) (*models.BotUser, error) {
	return s.users.Upsert(ctx, &models.BotUser{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	})
}

func (s *ShortenerService) GetBotUser(ctx context.Context, telegramID string) (*models.BotUser, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// UserStats sums clicks across the user's links and reports the persisted
// urls_created counter and tier.
func (s *ShortenerService) UserStats(ctx context.Context, telegramID string) (*models.UserStats, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	links, err := s.links.GetByOwner(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	var totalClicks int64
	for _, link := range links {
		totalClicks += link.Clicks
	}

	return &models.UserStats{
		UrlsCreated: user.UrlsCreated,
		TotalClicks: totalClicks,
		IsPremium:   user.IsPremium,
	}, nil
}

func (s *ShortenerService) SetPremium(ctx context.Context, telegramID string, isPremium bool) (*models.BotUser, error) {
	return s.users.SetPremium(ctx, telegramID, isPremium)
}

func (s *ShortenerService) ListBotUsers(ctx context.Context) ([]models.BotUser, error) {
	return s.users.ListUsers(ctx)
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx)
}

func validateURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url %q is not absolute", rawURL)
	}
	return nil
}
