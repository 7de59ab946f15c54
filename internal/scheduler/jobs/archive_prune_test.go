package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/pkg/logger"
)

type fakePruner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (f *fakePruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.removed, f.err
}

func TestArchivePruneJob(t *testing.T) {
	pruner := &fakePruner{removed: 4}
	job := NewArchivePruneJob(pruner, 48*time.Hour, "0 0 3 * * *", logger.Nop())
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	assert.Equal(t, "archive_prune", job.Name())
	assert.Equal(t, "0 0 3 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-48*time.Hour), pruner.cutoff)
}

func TestArchivePruneJob_Error(t *testing.T) {
	boom := errors.New("connection refused")
	job := NewArchivePruneJob(&fakePruner{err: boom}, time.Hour, "@daily", logger.Nop())

	assert.ErrorIs(t, job.Run(context.Background()), boom)
}
