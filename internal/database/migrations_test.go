package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(Config{Driver: DriverSQLite, URL: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	db := newTestDB(t)

	migrations, err := NewMigrator(db.DB, nil).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_cart_store", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.RunMigrations())
	// Second run is a no-op
	require.NoError(t, db.RunMigrations())

	status, err := db.GetMigrationStatus()
	require.NoError(t, err)
	for _, s := range status {
		assert.True(t, s.Applied, "migration %d should be applied", s.Version)
	}

	_, err = db.Exec("INSERT INTO cart_store (cart_key, value) VALUES ($1, $2)", "cart:test", "[]")
	assert.NoError(t, err)
}

func TestNewConnection_UnsupportedDriver(t *testing.T) {
	_, err := NewConnection(Config{Driver: "oracle", URL: "x"}, nil)
	assert.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Driver: DriverPostgres, Host: "localhost", Port: 5432, User: "postgres", DBName: "tixup", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=tixup sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
}
