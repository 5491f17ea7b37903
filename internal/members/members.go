// Package members resolves who is booking to the discount their membership
// grants.
package members

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Lookup interface {
	// DiscountFor returns the discount fraction of subjectID, 0 without a
	// membership.
	DiscountFor(ctx context.Context, subjectID string) (decimal.Decimal, error)
}

type PgRepo struct{ DB *pgxpool.Pool }

func (r *PgRepo) DiscountFor(ctx context.Context, subjectID string) (decimal.Decimal, error) {
	if subjectID == "" {
		return decimal.Zero, nil
	}
	var pct decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT m.discount_percentage
		FROM subject_memberships sm JOIN memberships m ON m.id = sm.membership_id
		WHERE sm.subject_id=$1`, subjectID).Scan(&pct)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("discount for %s: %w", subjectID, err)
	}
	return pct, nil
}

// Assign creates the membership if needed and attaches subjectID to it.
func (r *PgRepo) Assign(ctx context.Context, subjectID, membershipID, name string, pct decimal.Decimal) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO memberships(id, name, discount_percentage) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, discount_percentage=EXCLUDED.discount_percentage`,
		membershipID, name, pct); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO subject_memberships(subject_id, membership_id) VALUES ($1,$2)
		ON CONFLICT (subject_id) DO UPDATE SET membership_id=EXCLUDED.membership_id`,
		subjectID, membershipID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Static is an in-memory Lookup.
type Static struct {
	mu        sync.RWMutex
	discounts map[string]decimal.Decimal
}

func NewStatic(discounts map[string]decimal.Decimal) *Static {
	s := &Static{discounts: map[string]decimal.Decimal{}}
	for k, v := range discounts {
		s.discounts[k] = v
	}
	return s
}

func (s *Static) DiscountFor(_ context.Context, subjectID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discounts[subjectID], nil
}
