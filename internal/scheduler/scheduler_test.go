package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("transient")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 3 * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 3 * * *"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "b", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.Jobs())
}

func TestScheduler_RunNowRetries(t *testing.T) {
	s := New(logger.Nop()).WithRetry(2, time.Millisecond)
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.History("flaky")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestScheduler_RunNowGivesUp(t *testing.T) {
	s := New(logger.Nop()).WithRetry(1, time.Millisecond)
	require.NoError(t, s.AddJob(&countingJob{name: "broken", schedule: "@daily", failures: 100}))

	result, err := s.RunNow("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	_, err = s.RunNow("missing")
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1h"}))

	s.Start()
	assert.NotPanics(t, s.Stop)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0.0, h.SuccessRate())

	for i := 0; i < historySize+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historySize)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.001)
}

func TestScheduler_Status(t *testing.T) {
	s := New(logger.Nop()).WithRetry(0, time.Millisecond)
	require.NoError(t, s.AddJob(&countingJob{name: "prune", schedule: "0 0 3 * * *", failures: 1}))
	require.NoError(t, s.AddJob(&countingJob{name: "idle", schedule: "@daily"}))

	_, err := s.RunNow("prune") // fails once
	require.NoError(t, err)
	_, err = s.RunNow("prune")
	require.NoError(t, err)

	status := s.Status()
	require.Len(t, status, 2)

	assert.Equal(t, "idle", status[0].Name)
	assert.Equal(t, 0, status[0].Runs)
	assert.Nil(t, status[0].Last)

	assert.Equal(t, "prune", status[1].Name)
	assert.Equal(t, "0 0 3 * * *", status[1].Schedule)
	assert.Equal(t, 2, status[1].Runs)
	assert.InDelta(t, 0.5, status[1].SuccessRate, 0.001)
	require.NotNil(t, status[1].Last)
	assert.True(t, status[1].Last.Success)
}
