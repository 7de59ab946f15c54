package archive

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/database"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := database.New(context.Background(), config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func sample() *contracts.Dataset {
	return contracts.NewDataset([]contracts.Record{
		{Date: time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), Volume: 200, AdjClose: decimal.RequireFromString("11.0"), Stock: "AAPL", Exchange: "NASDAQ"},
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Volume: 100, AdjClose: decimal.RequireFromString("10.5"), Stock: "AAPL", Exchange: "NASDAQ"},
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Volume: 50, AdjClose: decimal.RequireFromString("5.123456789"), Stock: "FB", Exchange: "NASDAQ"},
	})
}

func TestRepository_SaveLoad(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	id := uuid.New()
	saved, err := repo.Save(ctx, id, "prices.csv", sample())
	require.NoError(t, err)
	assert.Equal(t, 3, saved.RowCount)
	assert.False(t, saved.UploadedAt.IsZero())

	upload, ds, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "prices.csv", upload.FileName)
	assert.Equal(t, id, upload.ID)

	// row order and exact decimals survive the round trip
	require.Equal(t, 3, ds.Len())
	for i, want := range sample().Records() {
		got := ds.Record(i)
		assert.True(t, want.Date.Equal(got.Date))
		assert.Equal(t, want.Volume, got.Volume)
		assert.True(t, want.AdjClose.Equal(got.AdjClose), "%s != %s", want.AdjClose, got.AdjClose)
		assert.Equal(t, want.Stock, got.Stock)
	}

	uploads, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, uploads)
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := setupRepository(t)

	_, _, err := repo.Load(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrUploadNotFound))
}

func TestRepository_Prune(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	id := uuid.New()
	_, err := repo.Save(ctx, id, "old.csv", sample())
	require.NoError(t, err)

	n, err := repo.PruneBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, _, err = repo.Load(ctx, id)
	assert.True(t, errors.Is(err, ErrUploadNotFound))
}
