package booking

import (
	"context"
	"sync"

	kafkax "github.com/ariefcatur/venue-booking/internal/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

// KafkaPublisher writes envelopes through the async producer.
type KafkaPublisher struct {
	Producer *kafkax.Producer
}

func (p *KafkaPublisher) Publish(_ context.Context, topic string, env Envelope) error {
	return p.Producer.Publish(topic, PartitionKey(env.CorrelationID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(env.EventType, env.EventVersion)...)
}

// Recorder keeps published envelopes in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Published
}

type Published struct {
	Topic    string
	Envelope Envelope
}

func (r *Recorder) Publish(_ context.Context, topic string, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Published{Topic: topic, Envelope: env})
	return nil
}

func (r *Recorder) Snapshot() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.Events))
	copy(out, r.Events)
	return out
}
