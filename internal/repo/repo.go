// Package repo provides database repositories
package repo

import (
	"context"
	"errors"

	"cosmicwatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// UserRepo handles user persistence
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new user repository
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a new user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	user := domain.User{Username: username, Email: email, PasswordHash: passwordHash}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		username, email, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, nil when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1",
		username)
	return scanUser(row)
}

// GetByUsernameOrEmail retrieves a user matching either field, nil when absent.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1 OR email = $2",
		username, email)
	return scanUser(row)
}

// GetByID retrieves a user by id, nil when absent.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1",
		id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// WatchlistRepo handles watchlist persistence
type WatchlistRepo struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepo creates a new watchlist repository
func NewWatchlistRepo(pool *pgxpool.Pool) *WatchlistRepo {
	return &WatchlistRepo{pool: pool}
}

// ListByUser lists a user's watchlist, newest first.
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID int64) ([]domain.WatchlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asteroid_id, asteroid_name, risk_category, risk_score, close_approach_date, created_at
		 FROM watchlist_items WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.WatchlistItem{}
	for rows.Next() {
		var item domain.WatchlistItem
		if err := rows.Scan(&item.AsteroidID, &item.AsteroidName, &item.RiskCategory,
			&item.RiskScore, &item.CloseApproachDate, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Upsert inserts or updates a watchlist entry keyed by (user, asteroid).
func (r *WatchlistRepo) Upsert(ctx context.Context, userID int64, upsert domain.WatchItemUpsert) (*domain.WatchlistItem, error) {
	item := domain.WatchlistItem{
		AsteroidID:        upsert.AsteroidID,
		AsteroidName:      upsert.AsteroidName,
		RiskCategory:      upsert.RiskCategory,
		RiskScore:         upsert.RiskScore,
		CloseApproachDate: upsert.CloseApproachDate,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO watchlist_items (user_id, asteroid_id, asteroid_name, risk_category, risk_score, close_approach_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, asteroid_id) DO UPDATE
		 SET asteroid_name = EXCLUDED.asteroid_name,
		     risk_category = EXCLUDED.risk_category,
		     risk_score = EXCLUDED.risk_score,
		     close_approach_date = EXCLUDED.close_approach_date
		 RETURNING created_at`,
		userID, upsert.AsteroidID, upsert.AsteroidName, upsert.RiskCategory,
		upsert.RiskScore, upsert.CloseApproachDate).Scan(&item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a watchlist entry. Deleting an absent entry is a no-op.
func (r *WatchlistRepo) Delete(ctx context.Context, userID int64, asteroidID string) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM watchlist_items WHERE user_id = $1 AND asteroid_id = $2",
		userID, asteroidID)
	return err
}

// InitDB initializes database tables
func InitDB(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users(
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist_items(
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			asteroid_id VARCHAR(64) NOT NULL,
			asteroid_name VARCHAR(255) NOT NULL,
			risk_category VARCHAR(32),
			risk_score INTEGER,
			close_approach_date VARCHAR(32),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_user_asteroid UNIQUE (user_id, asteroid_id)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_watchlist_user
		 ON watchlist_items(user_id, created_at DESC)`,
	}

	for _, q := range queries {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
