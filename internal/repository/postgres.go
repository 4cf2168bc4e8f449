package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/models"
)

const premiumChannel = "premium_changes"

type PostgresRepository struct {
	pool   *pgxpool.Pool
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func NewPostgresRepository(dsn string, logger *zap.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL repository initialized")

	return &PostgresRepository{
		pool:   pool,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (p *PostgresRepository) Insert(ctx context.Context, link *models.Link) error {
	query, args, err := p.sb.
		Insert("links").
		Columns("id", "original_url", "short_code", "created_by", "clicks", "created_at").
		Values(link.ID, link.OriginalURL, link.ShortCode, link.CreatedBy, link.Clicks, link.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateCode
		}
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

func (p *PostgresRepository) GetByCode(ctx context.Context, shortCode string) (*models.Link, error) {
	query, args, err := p.sb.
		Select("id", "original_url", "short_code", "created_by", "clicks", "created_at").
		From("links").
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var link models.Link
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&link.ID, &link.OriginalURL, &link.ShortCode, &link.CreatedBy, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &link, nil
}

func (p *PostgresRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	// Single-statement increment; concurrent redirects never lose an update.
	query, args, err := p.sb.
		Update("links").
		Set("clicks", squirrel.Expr("clicks + 1")).
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	query, args, err := p.sb.
		Select("id", "original_url", "short_code", "created_by", "clicks", "created_at").
		From("links").
		Where(squirrel.Eq{"created_by": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.OriginalURL, &link.ShortCode,
			&link.CreatedBy, &link.Clicks, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return links, nil
}

func (p *PostgresRepository) UpdateOriginalURL(ctx context.Context, id, ownerID, originalURL string) (*models.Link, error) {
	query, args, err := p.sb.
		Update("links").
		Set("original_url", originalURL).
		Where(squirrel.Eq{"id": id, "created_by": ownerID}).
		Suffix("RETURNING id, original_url, short_code, created_by, clicks, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var link models.Link
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&link.ID, &link.OriginalURL, &link.ShortCode, &link.CreatedBy, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &link, nil
}

func (p *PostgresRepository) GetByTelegramID(ctx context.Context, telegramID string) (*models.BotUser, error) {
	query, args, err := p.sb.
		Select("id", "telegram_id", "username", "first_name", "last_name",
			"is_premium", "urls_created", "created_at").
		From("bot_users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user models.BotUser
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
		&user.IsPremium, &user.UrlsCreated, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &user, nil
}

func (p *PostgresRepository) Upsert(ctx context.Context, user *models.BotUser) (*models.BotUser, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query, args, err := p.sb.
		Insert("bot_users").
		Columns("id", "telegram_id", "username", "first_name", "last_name",
			"is_premium", "urls_created", "created_at").
		Values(user.ID, user.TelegramID, user.Username, user.FirstName, user.LastName,
			user.IsPremium, user.UrlsCreated, user.CreatedAt).
		Suffix(`ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
			RETURNING id, telegram_id, username, first_name, last_name,
			is_premium, urls_created, created_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var saved models.BotUser
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&saved.ID, &saved.TelegramID, &saved.Username, &saved.FirstName, &saved.LastName,
		&saved.IsPremium, &saved.UrlsCreated, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert bot user: %w", err)
	}

	return &saved, nil
}

func (p *PostgresRepository) IncrementUrlsCreated(ctx context.Context, telegramID string) error {
	query, args, err := p.sb.
		Update("bot_users").
		Set("urls_created", squirrel.Expr("urls_created + 1")).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresRepository) SetPremium(ctx context.Context, telegramID string, isPremium bool) (*models.BotUser, error) {
	query, args, err := p.sb.
		Update("bot_users").
		Set("is_premium", isPremium).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix(`RETURNING id, telegram_id, username, first_name, last_name,
			is_premium, urls_created, created_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user models.BotUser
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
		&user.IsPremium, &user.UrlsCreated, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	payload := fmt.Sprintf("%s:%t", user.TelegramID, user.IsPremium)
	if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", premiumChannel, payload); err != nil {
		// Notification is best-effort; the premium flag itself is committed.
		p.logger.Error("Failed to notify premium change",
			zap.String("telegramID", telegramID),
			zap.Error(err))
	}

	return &user, nil
}

func (p *PostgresRepository) ListUsers(ctx context.Context) ([]models.BotUser, error) {
	query, args, err := p.sb.
		Select("id", "telegram_id", "username", "first_name", "last_name",
			"is_premium", "urls_created", "created_at").
		From("bot_users").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bot users: %w", err)
	}
	defer rows.Close()

	var users []models.BotUser
	for rows.Next() {
		var user models.BotUser
		if err := rows.Scan(&user.ID, &user.TelegramID, &user.Username, &user.FirstName,
			&user.LastName, &user.IsPremium, &user.UrlsCreated, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// WatchPremiumChanges listens on the premium_changes channel with a
// dedicated connection. The returned channel closes when ctx is cancelled.
func (p *PostgresRepository) WatchPremiumChanges(ctx context.Context) (<-chan PremiumChange, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+premiumChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", premiumChannel, err)
	}

	changes := make(chan PremiumChange)

	go func() {
		defer close(changes)
		defer conn.Release()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Error("Premium change listener failed", zap.Error(err))
				return
			}

			change, ok := parsePremiumPayload(notification.Payload)
			if !ok {
				p.logger.Warn("Malformed premium change payload",
					zap.String("payload", notification.Payload))
				continue
			}

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

func parsePremiumPayload(payload string) (PremiumChange, bool) {
	telegramID, flag, ok := strings.Cut(payload, ":")
	if !ok || telegramID == "" {
		return PremiumChange{}, false
	}
	return PremiumChange{TelegramID: telegramID, IsPremium: flag == "true"}, true
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}
