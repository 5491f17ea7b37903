package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := New(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestConfigStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	store := &ConfigStore{Redis: rdb}

	_, ok, err := store.Load(ctx, "court-1", slots.ConfigKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "court-1", slots.ConfigKey, []byte(`{"a":1}`)))
	doc, ok, err := store.Load(ctx, "court-1", slots.ConfigKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(doc))
	assert.True(t, mr.Exists("config:court-1:"+slots.ConfigKey))
}

func TestProviderOverRedis(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	p := slots.NewProvider(&ConfigStore{Redis: rdb}, time.Hour, zap.NewNop())

	peak, err := slots.NewSlot("court-1", slots.SlotPeak, 18*time.Hour, 22*time.Hour, decimal.NewFromInt(3), decimal.Zero)
	require.NoError(t, err)
	_, err = p.AddSlot(ctx, "court-1", peak)
	require.NoError(t, err)

	// a second process sees the stored registry
	other := slots.NewProvider(&ConfigStore{Redis: rdb}, time.Hour, zap.NewNop())
	reg, err := other.Registry(ctx, "court-1")
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, slots.SlotPeak, reg.Slots()[0].Type)
}

func TestClaimOnce(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)

	first, err := ClaimOnce(ctx, rdb, "dedup:x:1", time.Minute)
	require.NoError(t, err)
	second, err := ClaimOnce(ctx, rdb, "dedup:x:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	mr.FastForward(2 * time.Minute)
	ok, err := Exists(ctx, rdb, "dedup:x:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimKeepsFirstValue(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)

	ok, err := Claim(ctx, rdb, "idem:booking:create:e1", "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = Claim(ctx, rdb, "idem:booking:create:e1", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := mr.Get("idem:booking:create:e1")
	require.NoError(t, err)
	assert.Equal(t, "pending", v)
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
