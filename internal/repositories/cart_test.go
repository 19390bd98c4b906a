package repositories

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixup/internal/database"
	"tixup/internal/models"
)

func sampleItems() []models.CartItem {
	return []models.CartItem{
		{
			ID:           1,
			Title:        "Festival - Pista Inteira",
			EventName:    "Festival",
			TicketTypeID: "pista",
			TicketName:   "Pista",
			Category:     models.CategoryFull,
			Price:        decimal.NewFromInt(100),
			Quantity:     2,
		},
		{
			ID:           2,
			Title:        "Festival - VIP Meia",
			EventName:    "Festival",
			TicketTypeID: "vip",
			TicketName:   "VIP",
			Category:     models.CategoryHalf,
			Price:        decimal.NewFromInt(150),
			Quantity:     1,
		},
	}
}

func newSession(t *testing.T) *sessions.Session {
	t.Helper()
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	session, err := store.New(httptest.NewRequest("GET", "/", nil), "session")
	require.NoError(t, err)
	return session
}

// exerciseRepository runs the shared contract every backend must satisfy
func exerciseRepository(t *testing.T, repo CartRepository) {
	ctx := context.Background()

	items, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	require.NoError(t, repo.Save(ctx, sampleItems()))

	items, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "pista", items[0].TicketTypeID)
	assert.True(t, decimal.NewFromInt(100).Equal(items[0].Price))
	assert.Equal(t, 1, items[1].Quantity)

	require.NoError(t, repo.Save(ctx, nil))
	items, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryCartRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryCartRepository())
}

func TestMemoryCartRepository_Corrupt(t *testing.T) {
	repo := NewMemoryCartRepository()
	repo.SetRaw("{not json")

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageCorrupt)
}

func TestMemoryCartRepository_StoresJSONArray(t *testing.T) {
	repo := NewMemoryCartRepository()
	require.NoError(t, repo.Save(context.Background(), nil))
	assert.Equal(t, "[]", repo.Raw())

	require.NoError(t, repo.Save(context.Background(), sampleItems()[:1]))
	assert.True(t, strings.HasPrefix(repo.Raw(), `[{"id":1,`))
}

func TestMemoryCartProvider_SeparatesSessions(t *testing.T) {
	provider := NewMemoryCartProvider()
	first, second := newSession(t), newSession(t)

	require.NoError(t, provider.ForSession(first).Save(context.Background(), sampleItems()))

	items, err := provider.ForSession(second).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = provider.ForSession(first).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCartKey(t *testing.T) {
	session := newSession(t)

	key := CartKey(session)
	assert.True(t, strings.HasPrefix(key, "cart:"))
	assert.Equal(t, key, CartKey(session))
	assert.NotEqual(t, key, CartKey(newSession(t)))
}

func TestSessionCartRepository(t *testing.T) {
	session := newSession(t)
	exerciseRepository(t, NewSessionCartRepository(session))

	_, ok := session.Values[CartStorageKey].(string)
	assert.True(t, ok)
}

func TestSessionCartRepository_Corrupt(t *testing.T) {
	session := newSession(t)
	repo := SessionCartProvider{}.ForSession(session)

	session.Values[CartStorageKey] = "[{"
	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageCorrupt)

	session.Values[CartStorageKey] = 42
	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageCorrupt)
}

func TestRedisCartRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseRepository(t, NewRedisCartRepository(client, "cart:test", 0))
}

func TestRedisCartRepository_TTLAndCorrupt(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	provider := NewRedisCartProvider(client, time.Hour)
	session := newSession(t)
	repo := provider.ForSession(session)

	require.NoError(t, repo.Save(context.Background(), sampleItems()))
	key := CartKey(session)
	assert.Equal(t, time.Hour, mr.TTL(key))

	require.NoError(t, mr.Set(key, "garbage"))
	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageCorrupt)
}

func newSQLDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewConnection(database.Config{Driver: database.DriverSQLite, URL: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLCartRepository(t *testing.T) {
	db := newSQLDB(t)
	exerciseRepository(t, NewSQLCartRepository(db.DB, "cart:test"))
}

func TestSQLCartRepository_Corrupt(t *testing.T) {
	db := newSQLDB(t)
	_, err := db.Exec(`INSERT INTO cart_store (cart_key, value) VALUES ($1, $2)`, "cart:bad", "nope")
	require.NoError(t, err)

	_, err = NewSQLCartRepository(db.DB, "cart:bad").Load(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageCorrupt)
}

func TestSQLCartProvider_PurgeStaleCarts(t *testing.T) {
	db := newSQLDB(t)
	provider := NewSQLCartProvider(db.DB)

	require.NoError(t, provider.ForSession(newSession(t)).Save(context.Background(), sampleItems()))
	require.NoError(t, provider.ForSession(newSession(t)).Save(context.Background(), sampleItems()))

	removed, err := provider.PurgeStaleCarts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	removed, err = provider.PurgeStaleCarts(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}
