package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/pkg/config"
)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return config.DatabaseConfig{
		URL:             url,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func TestNew(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, db.Ping(ctx))
}

func TestHealthCheck(t *testing.T) {
	db, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	status := db.HealthCheck(context.Background())
	assert.True(t, status.Healthy, status.Error)
	assert.Greater(t, status.TotalConns, int32(0))
}

func TestNewWithInvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	var nilDB *DB
	assert.NotPanics(t, nilDB.Close)
	assert.NotPanics(t, (&DB{}).Close)
}
