package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := NewBus()
	topic := ProjectTopic("p1")

	a, cancelA := bus.Subscribe(topic, 4)
	defer cancelA()
	b, cancelB := bus.Subscribe(topic, 4)
	defer cancelB()

	bus.Publish(topic, Event{Type: TypeWorkflowAdvanced, ProjectID: "p1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, TypeWorkflowAdvanced, ev.Type)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublishIsTopicScoped(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(JobTopic("j1"), 4)
	defer cancel()

	bus.Publish(JobTopic("j2"), Event{Type: TypeJobStatusChanged, JobID: "j2"})
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	bus := NewBus()
	topic := JobTopic("j1")

	ch, cancel := bus.Subscribe(topic, 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(topic, Event{Type: TypeJobLogsAppended, JobID: "j1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	// the slow subscriber still got the first event
	ev := <-ch
	assert.Equal(t, TypeJobLogsAppended, ev.Type)
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	topic := ProjectTopic("p1")

	ch, cancel := bus.Subscribe(topic, 4)
	cancel()

	_, open := <-ch
	require.False(t, open)

	// publishing after cancel must not panic
	bus.Publish(topic, Event{Type: TypeWorkflowFailed})
}
