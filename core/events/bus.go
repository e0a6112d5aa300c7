// Package events provides the in-process publish/subscribe bus the
// orchestration core uses instead of store-level live queries. Topics
// are per project or per job; subscribers receive events over channels.
package events

import (
	"sync"
	"time"
)

// Event types published by the core
const (
	TypeWorkflowAdvanced = "workflow.advanced"
	TypeWorkflowFailed   = "workflow.failed"
	TypeJobStatusChanged = "job.status_changed"
	TypeJobLogsAppended  = "job.logs_appended"
	TypeModelPromoted    = "model.promoted"
)

// Event is one notification delivered to subscribers
type Event struct {
	Type      string
	ProjectID string
	JobID     string
	Payload   interface{}
	At        time.Time
}

// ProjectTopic names the topic carrying all events of one project
func ProjectTopic(projectID string) string { return "project/" + projectID }

// JobTopic names the topic carrying events of one job
func JobTopic(jobID string) string { return "job/" + jobID }

type subscriber struct {
	ch chan Event
}

// Bus is a per-topic channel fan-out. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]*subscriber
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{topics: make(map[string][]*subscriber)}
}

// Subscribe registers a listener on a topic. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		subs := b.topics[topic]
		for i, s := range subs {
			if s == sub {
				b.topics[topic] = append(subs[:i], subs[i+1:]...)
				close(s.ch)
				break
			}
		}
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of the topic
func (b *Bus) Publish(topic string, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
