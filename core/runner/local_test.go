package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

type updateCollector struct {
	mu      sync.Mutex
	updates []StatusUpdate
	done    chan struct{}
}

func newUpdateCollector() *updateCollector {
	return &updateCollector{done: make(chan struct{})}
}

func (c *updateCollector) sink(_ context.Context, upd StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, upd)
	if upd.Status.Terminal() {
		close(c.done)
	}
	return nil
}

func (c *updateCollector) all() []StatusUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StatusUpdate, len(c.updates))
	copy(out, c.updates)
	return out
}

func (c *updateCollector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal update arrived")
	}
}

func TestLocalRunnerWalksToSucceeded(t *testing.T) {
	c := newUpdateCollector()
	l := NewLocal(c.sink, time.Millisecond, zap.NewNop())

	externalID, err := l.SubmitJob(context.Background(), Spec{JobID: "j1", MachineType: "g4dn.xlarge", MaxHours: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, externalID)

	c.wait(t)
	updates := c.all()
	require.NotEmpty(t, updates)

	first := updates[0]
	assert.Equal(t, "j1", first.JobID)
	assert.Equal(t, models.JobStatusRunning, first.Status)
	assert.Equal(t, int64(1), first.Seq)

	last := updates[len(updates)-1]
	assert.Equal(t, models.JobStatusSucceeded, last.Status)
	require.NotNil(t, last.Metrics)
	require.NotNil(t, last.Metrics.Accuracy)
	assert.InDelta(t, 0.91, *last.Metrics.Accuracy, 1e-9)

	// sequence tokens strictly increase
	for i := 1; i < len(updates); i++ {
		assert.Greater(t, updates[i].Seq, updates[i-1].Seq)
	}
}

func TestLocalRunnerCancelConfirmsFailed(t *testing.T) {
	c := newUpdateCollector()
	l := NewLocal(c.sink, time.Second, zap.NewNop())

	externalID, err := l.SubmitJob(context.Background(), Spec{JobID: "j1"})
	require.NoError(t, err)

	require.NoError(t, l.CancelJob(context.Background(), externalID))

	c.wait(t)
	updates := c.all()
	last := updates[len(updates)-1]
	assert.Equal(t, models.JobStatusFailed, last.Status)
	assert.Equal(t, models.ReasonUserCancelled, last.Reason)
}

func TestLocalRunnerCancelUnknownIDIsNoop(t *testing.T) {
	l := NewLocal(func(context.Context, StatusUpdate) error { return nil }, time.Millisecond, zap.NewNop())
	assert.NoError(t, l.CancelJob(context.Background(), "local-ghost"))
}
