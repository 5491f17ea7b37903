package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 16, zap.NewNop())
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Publish("booking.created", []byte("b1"), []byte("{}"), EventHeaders("BookingCreated", 1)...))
	}
	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 5)
	assert.True(t, w.closed)
	assert.Equal(t, "booking.created", w.msgs[0].Topic)
	assert.Equal(t, "BookingCreated", Header(w.msgs[0], HeaderEventType))
	assert.Equal(t, "1", Header(w.msgs[0], HeaderEventVersion))
	assert.ErrorIs(t, p.Publish("booking.created", nil, nil), ErrProducerClosed)
}

func TestProducerFlushesOnCancel(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 16, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.NoError(t, p.Publish("t", nil, []byte("x")))
	cancel()
	p.WaitClosed()
	assert.True(t, w.closed)
	p.Close()
}

func TestProducerSurvivesWriteErrors(t *testing.T) {
	w := &fakeWriter{fail: true}
	p := newProducer(w, 4, zap.NewNop())
	p.Start(context.Background())
	require.NoError(t, p.Publish("t", nil, []byte("x")))
	p.Close()
	p.WaitClosed()
	assert.Empty(t, w.msgs)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	p, err := UnwrapPayload[payload]([]byte(`{"id":"b1"}`))
	require.NoError(t, err)
	assert.Equal(t, "b1", p.ID)

	_, err = UnwrapPayload[payload]([]byte(`nope`))
	assert.Error(t, err)
}
