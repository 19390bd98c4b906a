package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/sessions"

	"tixup/internal/models"
)

// SQLCartRepository stores the cart JSON in the cart_store key/value table.
// The queries run unchanged on postgres and sqlite.
type SQLCartRepository struct {
	db  *sql.DB
	key string
}

// NewSQLCartRepository creates a repository for one cart key
func NewSQLCartRepository(db *sql.DB, key string) *SQLCartRepository {
	return &SQLCartRepository{db: db, key: key}
}

func (r *SQLCartRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM cart_store WHERE cart_key = $1`, r.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", r.key, err)
	}
	return decodeCart([]byte(value))
}

func (r *SQLCartRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cart_store (cart_key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, r.key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", r.key, err)
	}
	return nil
}

// SQLCartProvider namespaces carts by the session's cart id
type SQLCartProvider struct {
	db *sql.DB
}

// NewSQLCartProvider creates a provider backed by db
func NewSQLCartProvider(db *sql.DB) *SQLCartProvider {
	return &SQLCartProvider{db: db}
}

func (p *SQLCartProvider) ForSession(session *sessions.Session) CartRepository {
	return NewSQLCartRepository(p.db, CartKey(session))
}

// PurgeStaleCarts deletes carts not written since before cutoff and
// returns how many were removed.
func (p *SQLCartProvider) PurgeStaleCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM cart_store WHERE updated_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale carts: %w", err)
	}
	return result.RowsAffected()
}
