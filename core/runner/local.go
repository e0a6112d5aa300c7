package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// Local simulates the external execution system in-process. A submitted
// job walks provisioning -> running -> succeeded on a timer, emitting
// log lines and synthetic metrics through the sink. Cancelling stops
// the walk and confirms with a failed update.
type Local struct {
	sink     Sink
	stepWait time.Duration
	log      *zap.Logger

	mu   sync.Mutex
	jobs map[string]chan struct{} // externalID -> cancel signal
}

// NewLocal creates a local runner. Updates are delivered to sink;
// stepWait is the pause between simulated phases.
func NewLocal(sink Sink, stepWait time.Duration, log *zap.Logger) *Local {
	return &Local{
		sink:     sink,
		stepWait: stepWait,
		log:      log,
		jobs:     make(map[string]chan struct{}),
	}
}

// SubmitJob starts the simulated job lifecycle
func (l *Local) SubmitJob(ctx context.Context, spec Spec) (string, error) {
	externalID := "local-" + uuid.New().String()

	cancelCh := make(chan struct{})
	l.mu.Lock()
	l.jobs[externalID] = cancelCh
	l.mu.Unlock()

	go l.run(spec, externalID, cancelCh)
	return externalID, nil
}

// CancelJob signals the simulated job to stop; confirmation arrives
// through the sink like any other status update
func (l *Local) CancelJob(_ context.Context, externalID string) error {
	l.mu.Lock()
	ch, ok := l.jobs[externalID]
	l.mu.Unlock()
	if ok {
		close(ch)
	}
	return nil
}

func (l *Local) run(spec Spec, externalID string, cancelCh <-chan struct{}) {
	ctx := context.Background()
	start := time.Now()
	seq := int64(0)

	emit := func(upd StatusUpdate) {
		upd.JobID = spec.JobID
		if err := l.sink(ctx, upd); err != nil {
			l.log.Warn("local runner update rejected",
				zap.String("job_id", spec.JobID), zap.Error(err))
		}
	}

	confirmCancel := func() {
		emit(StatusUpdate{
			Status:       models.JobStatusFailed,
			Reason:       models.ReasonUserCancelled,
			RuntimeHours: time.Since(start).Hours(),
		})
		l.forget(externalID)
	}

	phases := []StatusUpdate{
		{Status: models.JobStatusRunning, Logs: []string{"machine allocated", "environment ready"}},
		{Logs: []string{"epoch 1/3 complete", "epoch 2/3 complete"}},
		{Logs: []string{"epoch 3/3 complete", "evaluating on holdout split"}},
	}
	for _, phase := range phases {
		select {
		case <-cancelCh:
			confirmCancel()
			return
		case <-time.After(l.stepWait):
		}
		seq++
		phase.Seq = seq
		emit(phase)
	}

	select {
	case <-cancelCh:
		confirmCancel()
		return
	case <-time.After(l.stepWait):
	}

	accuracy := 0.91
	f1 := 0.89
	seq++
	emit(StatusUpdate{
		Status: models.JobStatusSucceeded,
		Seq:    seq,
		Logs:   []string{"training complete"},
		Metrics: &models.Metrics{
			TaskType: models.TaskClassification,
			Accuracy: &accuracy,
			F1:       &f1,
		},
		RuntimeHours: time.Since(start).Hours(),
	})
	l.forget(externalID)
}

func (l *Local) forget(externalID string) {
	l.mu.Lock()
	delete(l.jobs, externalID)
	l.mu.Unlock()
}
