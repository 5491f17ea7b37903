package venues

import (
	"context"
	"testing"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	_, err := repo.Get(ctx, "court-1")
	assert.ErrorIs(t, err, apperr.ErrScopeNotFound)
	assert.Equal(t, 404, apperr.StatusOf(err))

	require.NoError(t, repo.Upsert(ctx, Scope{ID: "court-1", Name: "Court 1", ScheduleActive: true}))
	s, err := repo.Get(ctx, "court-1")
	require.NoError(t, err)
	assert.False(t, s.BasePrice.Valid)

	s.BasePrice = decimal.NewNullDecimal(decimal.NewFromInt(120))
	require.NoError(t, repo.Upsert(ctx, s))
	s, err = repo.Get(ctx, "court-1")
	require.NoError(t, err)
	assert.True(t, s.BasePrice.Decimal.Equal(decimal.NewFromInt(120)))
}
