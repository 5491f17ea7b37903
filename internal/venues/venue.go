package venues

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Scope is a bookable venue. BasePrice is the hourly rate before slot
// multipliers; it may be unset.
type Scope struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Location       string              `json:"location"`
	BasePrice      decimal.NullDecimal `json:"base_price"`
	ScheduleActive bool                `json:"schedule_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type Repo interface {
	Get(ctx context.Context, id string) (Scope, error)
	Upsert(ctx context.Context, s Scope) error
}

type PgRepo struct{ DB *pgxpool.Pool }

func (r *PgRepo) Get(ctx context.Context, id string) (Scope, error) {
	var s Scope
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, location, base_price, schedule_active, created_at, updated_at
		FROM scopes WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.Location, &s.BasePrice, &s.ScheduleActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Scope{}, apperr.ErrScopeNotFound.WithDetails("scope %s", id)
	}
	if err != nil {
		return Scope{}, fmt.Errorf("get scope %s: %w", id, err)
	}
	return s, nil
}

func (r *PgRepo) Upsert(ctx context.Context, s Scope) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO scopes(id, name, description, location, base_price, schedule_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, description=EXCLUDED.description, location=EXCLUDED.location,
			base_price=EXCLUDED.base_price, schedule_active=EXCLUDED.schedule_active, updated_at=now()`,
		s.ID, s.Name, s.Description, s.Location, s.BasePrice, s.ScheduleActive)
	return err
}

// MemoryRepo is a Repo backed by a map.
type MemoryRepo struct {
	mu     sync.RWMutex
	scopes map[string]Scope
}

func NewMemoryRepo(scopes ...Scope) *MemoryRepo {
	m := &MemoryRepo{scopes: map[string]Scope{}}
	for _, s := range scopes {
		m.scopes[s.ID] = s
	}
	return m
}

func (m *MemoryRepo) Get(_ context.Context, id string) (Scope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scopes[id]
	if !ok {
		return Scope{}, apperr.ErrScopeNotFound.WithDetails("scope %s", id)
	}
	return s, nil
}

func (m *MemoryRepo) Upsert(_ context.Context, s Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes[s.ID] = s
	return nil
}
