package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"tixup/internal/models"
)

// CartStorageKey is the fixed key the cart is stored under. Shared backends
// namespace it per visitor as "cart:<cart id>".
const CartStorageKey = "cart"

// cartIDSessionKey holds the visitor's cart id in the session
const cartIDSessionKey = "cart_id"

// CartRepository persists the whole cart as one JSON array
type CartRepository interface {
	// Load returns the stored items, an empty slice when nothing is stored,
	// or an error wrapping models.ErrStorageCorrupt when the value cannot be
	// decoded.
	Load(ctx context.Context) ([]models.CartItem, error)
	// Save overwrites the stored cart
	Save(ctx context.Context, items []models.CartItem) error
}

// CartRepositoryProvider returns the cart repository of a visitor session
type CartRepositoryProvider interface {
	ForSession(session *sessions.Session) CartRepository
}

// CartKey returns the namespaced storage key of the session's cart,
// assigning a cart id to the session on first use. The caller must save
// the session for a new id to stick.
func CartKey(session *sessions.Session) string {
	id, ok := session.Values[cartIDSessionKey].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		session.Values[cartIDSessionKey] = id
	}
	return CartStorageKey + ":" + id
}

func encodeCart(items []models.CartItem) ([]byte, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) ([]models.CartItem, error) {
	if len(data) == 0 {
		return []models.CartItem{}, nil
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageCorrupt, err)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

// MemoryCartRepository keeps the encoded cart in memory. It stores the JSON
// form so it behaves like the durable backends, corruption included.
type MemoryCartRepository struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryCartRepository creates an empty in-memory cart
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{}
}

func (r *MemoryCartRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return decodeCart(r.data)
}

func (r *MemoryCartRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
	return nil
}

// SetRaw replaces the stored value as-is
func (r *MemoryCartRepository) SetRaw(data string) {
	r.mu.Lock()
	r.data = []byte(data)
	r.mu.Unlock()
}

// Raw returns the stored value
func (r *MemoryCartRepository) Raw() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.data)
}

// MemoryCartProvider hands out one in-memory cart per cart id
type MemoryCartProvider struct {
	mu    sync.Mutex
	carts map[string]*MemoryCartRepository
}

// NewMemoryCartProvider creates a provider with no carts
func NewMemoryCartProvider() *MemoryCartProvider {
	return &MemoryCartProvider{carts: make(map[string]*MemoryCartRepository)}
}

func (p *MemoryCartProvider) ForSession(session *sessions.Session) CartRepository {
	key := CartKey(session)

	p.mu.Lock()
	defer p.mu.Unlock()

	repo, ok := p.carts[key]
	if !ok {
		repo = NewMemoryCartRepository()
		p.carts[key] = repo
	}
	return repo
}
