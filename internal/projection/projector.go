// Package projection keeps the redis booking status cache in step with the
// booking event stream.
package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/venue-booking/internal/booking"
	kafkax "github.com/ariefcatur/venue-booking/internal/kafka"
	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Projector struct {
	Redis       redis.Cmdable
	Cache       *StatusCache
	Log         *zap.Logger
	ServiceName string
}

// Handle is installed as the consumer handler. Every event is applied at
// most once; a status that cannot follow the cached one is ignored, so
// events from different topics may arrive in any order.
func (p *Projector) Handle(ctx context.Context, m kafkago.Message) error {
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		p.Log.Warn("dropping undecodable event", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}

	view, err := viewOf(env)
	if err != nil {
		return err
	}
	if view == nil {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, p.ServiceName, env.EventID)
	claimed, err := redisx.ClaimOnce(ctx, p.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !claimed {
		p.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	if err := p.apply(ctx, *view); err != nil {
		// let a redelivery try again
		_ = p.Redis.Del(ctx, dkey).Err()
		return err
	}
	return nil
}

func (p *Projector) apply(ctx context.Context, v StatusView) error {
	written, err := p.Cache.Advance(ctx, v)
	if err != nil {
		return err
	}
	if !written {
		p.Log.Info("stale status ignored", zap.String("booking_id", v.BookingID), zap.String("event", v.Status))
	}
	return nil
}

// viewOf returns nil for event types the projector does not track.
func viewOf(env booking.Envelope) (*StatusView, error) {
	switch env.EventType {
	case booking.EventBookingCreated:
		pl, err := kafkax.UnwrapPayload[booking.BookingCreatedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return &StatusView{BookingID: pl.BookingID, ScopeKey: pl.ScopeKey, Status: pl.Status, UpdatedAt: env.OccurredAt}, nil
	case booking.EventBookingCancelled, booking.EventBookingConfirmed:
		pl, err := kafkax.UnwrapPayload[booking.StatusChangedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return &StatusView{BookingID: pl.BookingID, ScopeKey: pl.ScopeKey, Status: pl.Status, UpdatedAt: env.OccurredAt}, nil
	}
	return nil, nil
}
