package repositories

import (
	"context"
	"fmt"

	"github.com/gorilla/sessions"

	"tixup/internal/models"
)

// SessionCartRepository stores the cart JSON inside the visitor session
// under the "cart" value. Save only updates the session values; the HTTP
// handler persists the session when the request completes.
type SessionCartRepository struct {
	session *sessions.Session
}

// NewSessionCartRepository creates a repository over a loaded session
func NewSessionCartRepository(session *sessions.Session) *SessionCartRepository {
	return &SessionCartRepository{session: session}
}

func (r *SessionCartRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	cartData, ok := r.session.Values[CartStorageKey]
	if !ok {
		return []models.CartItem{}, nil
	}

	cartJSON, ok := cartData.(string)
	if !ok {
		return nil, fmt.Errorf("%w: session value has type %T", models.ErrStorageCorrupt, cartData)
	}

	return decodeCart([]byte(cartJSON))
}

func (r *SessionCartRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}
	r.session.Values[CartStorageKey] = string(data)
	return nil
}

// SessionCartProvider keeps every cart in its own session
type SessionCartProvider struct{}

func (SessionCartProvider) ForSession(session *sessions.Session) CartRepository {
	return NewSessionCartRepository(session)
}
