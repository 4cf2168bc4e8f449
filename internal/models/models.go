package models

import "time"

// FreeTierLimit is the number of links a non-premium bot user may create.
const FreeTierLimit = 3

// Link is a shortened URL record. ShortCode is globally unique.
type Link struct {
	ID          string    `db:"id" json:"id"`
	OriginalURL string    `db:"original_url" json:"original_url"`
	ShortCode   string    `db:"short_code" json:"short_code"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	Clicks      int64     `db:"clicks" json:"clicks"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BotUser is a Telegram user known to the bot, keyed by TelegramID.
type BotUser struct {
	ID          string    `db:"id" json:"id"`
	TelegramID  string    `db:"telegram_id" json:"telegram_id"`
	Username    string    `db:"username" json:"username,omitempty"`
	FirstName   string    `db:"first_name" json:"first_name,omitempty"`
	LastName    string    `db:"last_name" json:"last_name,omitempty"`
	IsPremium   bool      `db:"is_premium" json:"is_premium"`
	UrlsCreated int64     `db:"urls_created" json:"urls_created"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserStats aggregates a bot user's usage for the /stats command.
type UserStats struct {
	UrlsCreated int64
	TotalClicks int64
	IsPremium   bool
}

type ShortenRequest struct {
	URL string `json:"url"`
}

type ShortenResponse struct {
	Result string `json:"result"`
}

type UserLink struct {
	ID          string `json:"id"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
}

type UpdateLinkRequest struct {
	ID          string `json:"id"`
	OriginalURL string `json:"original_url"`
}

type SetPremiumRequest struct {
	TelegramID string `json:"telegram_id"`
	IsPremium  bool   `json:"is_premium"`
}
