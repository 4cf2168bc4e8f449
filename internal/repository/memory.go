package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vkarpenko/telelink/internal/models"
)

// MemoryRepository is a map-backed implementation of both repositories.
// It is used when no database DSN is configured and by the test suite.
// All mutation happens under the mutex, so increments are atomic and the
// short-code uniqueness check-and-insert is a single critical section.
type MemoryRepository struct {
	mu          sync.Mutex
	linksByCode map[string]*models.Link
	linksByID   map[string]*models.Link
	users       map[string]*models.BotUser

	watchersMu sync.Mutex
	watchers   []chan PremiumChange
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		linksByCode: make(map[string]*models.Link),
		linksByID:   make(map[string]*models.Link),
		users:       make(map[string]*models.BotUser),
	}
}

func (m *MemoryRepository) Insert(_ context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.linksByCode[link.ShortCode]; exists {
		return ErrDuplicateCode
	}

	stored := *link
	m.linksByCode[stored.ShortCode] = &stored
	m.linksByID[stored.ID] = &stored
	return nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, shortCode string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.linksByCode[shortCode]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MemoryRepository) IncrementClicks(_ context.Context, shortCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.linksByCode[shortCode]
	if !exists {
		return ErrNotFound
	}
	link.Clicks++
	return nil
}

func (m *MemoryRepository) GetByOwner(_ context.Context, ownerID string) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var links []models.Link
	for _, link := range m.linksByCode {
		if link.CreatedBy == ownerID {
			links = append(links, *link)
		}
	}
	return links, nil
}

func (m *MemoryRepository) UpdateOriginalURL(_ context.Context, id, ownerID, originalURL string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.linksByID[id]
	if !exists || link.CreatedBy != ownerID {
		return nil, ErrNotFound
	}
	link.OriginalURL = originalURL
	copied := *link
	return &copied, nil
}

func (m *MemoryRepository) GetByTelegramID(_ context.Context, telegramID string) (*models.BotUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[telegramID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryRepository) Upsert(_ context.Context, user *models.BotUser) (*models.BotUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.users[user.TelegramID]; exists {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		copied := *existing
		return &copied, nil
	}

	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.users[stored.TelegramID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MemoryRepository) IncrementUrlsCreated(_ context.Context, telegramID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[telegramID]
	if !exists {
		return ErrNotFound
	}
	user.UrlsCreated++
	return nil
}

func (m *MemoryRepository) SetPremium(_ context.Context, telegramID string, isPremium bool) (*models.BotUser, error) {
	m.mu.Lock()
	user, exists := m.users[telegramID]
	if !exists {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	user.IsPremium = isPremium
	copied := *user
	m.mu.Unlock()

	m.notifyPremiumChange(PremiumChange{TelegramID: telegramID, IsPremium: isPremium})

	return &copied, nil
}

func (m *MemoryRepository) ListUsers(_ context.Context) ([]models.BotUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.BotUser, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, nil
}

func (m *MemoryRepository) WatchPremiumChanges(ctx context.Context) (<-chan PremiumChange, error) {
	// Buffered so SetPremium never blocks on a slow consumer.
	ch := make(chan PremiumChange, 16)

	m.watchersMu.Lock()
	m.watchers = append(m.watchers, ch)
	m.watchersMu.Unlock()

	go func() {
		<-ctx.Done()
		m.watchersMu.Lock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		m.watchersMu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (m *MemoryRepository) notifyPremiumChange(change PremiumChange) {
	m.watchersMu.Lock()
	defer m.watchersMu.Unlock()

	for _, w := range m.watchers {
		select {
		case w <- change:
		default:
		}
	}
}

func (m *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}
