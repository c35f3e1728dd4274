package scheduler

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewCronScheduler("0 7 * * *", nil).Validate())
	assert.NoError(t, NewCronScheduler("@every 1h", nil).Validate())
	assert.Error(t, NewCronScheduler("every morning", nil).Validate())
}

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	err := NewCronScheduler("61 * * * *", time.UTC).Start(context.Background(), func(time.Time) {})
	assert.Error(t, err)
}

func TestCronSchedulerFiresJob(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	sched := NewCronScheduler("@every 1s", loc)

	fired := make(chan time.Time, 1)
	require.NoError(t, sched.Start(context.Background(), func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}))
	assert.ErrorIs(t, sched.Start(context.Background(), func(time.Time) {}), ErrAlreadyStarted)

	select {
	case at := <-fired:
		assert.Equal(t, loc, at.Location())
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire")
	}

	require.NoError(t, sched.Stop(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
}

func TestCronSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sched := NewCronScheduler("0 7 * * *", nil)
	require.NoError(t, sched.Start(ctx, func(time.Time) {}))

	cancel()
	assert.Eventually(t, func() bool {
		sched.mu.Lock()
		defer sched.mu.Unlock()
		return sched.cron == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCronSchedulerNilJob(t *testing.T) {
	t.Parallel()

	sched := NewCronScheduler("0 7 * * *", nil)
	require.NoError(t, sched.Start(context.Background(), nil))
	assert.NoError(t, sched.Stop(context.Background()))
}

func TestCronSchedulerStampsRunsWithClock(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 5, 7, 0, 0, 0, time.UTC))
	sched := NewCronScheduler("@every 1s", loc, WithClock(clock))

	fired := make(chan time.Time, 1)
	require.NoError(t, sched.Start(context.Background(), func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}))
	defer func() { _ = sched.Stop(context.Background()) }()

	select {
	case at := <-fired:
		assert.True(t, clock.Now().Equal(at))
		assert.Equal(t, loc, at.Location())
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCronSchedulerRecoversPanickingJob(t *testing.T) {
	t.Parallel()

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	sched := NewCronScheduler("@every 1s", nil, WithLogger(logger))

	var runs atomic.Int32
	require.NoError(t, sched.Start(context.Background(), func(time.Time) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	}))
	defer func() { _ = sched.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "boom")
}
