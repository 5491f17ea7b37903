package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/ariefcatur/venue-booking/internal/reservation"
	"github.com/redis/go-redis/v9"
)

// StatusView is the cached status of one booking.
type StatusView struct {
	BookingID string    `json:"booking_id"`
	ScopeKey  string    `json:"scope_key"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StatusCache struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

func (c *StatusCache) Get(ctx context.Context, bookingID string) (StatusView, bool, error) {
	b, err := c.Redis.Get(ctx, fmt.Sprintf(redisx.KeyBookingStatus, bookingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return StatusView{}, false, nil
	}
	if err != nil {
		return StatusView{}, false, err
	}
	var v StatusView
	if err := json.Unmarshal(b, &v); err != nil {
		return StatusView{}, false, fmt.Errorf("decode status %s: %w", bookingID, err)
	}
	return v, true, nil
}

// advanceScript writes ARGV[1] unless the cached status is not one of
// ARGV[3..]. Undecodable entries are overwritten.
var advanceScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and doc.status then
    local allowed = false
    for i = 3, #ARGV do
      if ARGV[i] == doc.status then allowed = true end
    end
    if not allowed then return 0 end
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// Advance stores v only when its status can follow the cached one, in a
// single server-side step. It reports whether v was written.
func (c *StatusCache) Advance(ctx context.Context, v StatusView) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	ttl := c.TTL
	if ttl == 0 {
		ttl = redisx.TTLStatusCache
	}
	args := []any{b, ttl.Milliseconds()}
	for _, s := range reservation.Precedes(reservation.Status(v.Status)) {
		args = append(args, string(s))
	}
	n, err := advanceScript.Run(ctx, c.Redis, []string{fmt.Sprintf(redisx.KeyBookingStatus, v.BookingID)}, args...).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
