package slots

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store persists JSON documents keyed by scope and config key.
type Store interface {
	Load(ctx context.Context, scopeKey, configKey string) ([]byte, bool, error)
	Save(ctx context.Context, scopeKey, configKey string, doc []byte) error
}

// Provider hands out one Registry per scope. A scope with nothing stored
// gets the uniform default. Registries stay cached until Invalidate.
type Provider struct {
	Store           Store
	DefaultInterval time.Duration
	Log             *zap.Logger

	mu    sync.Mutex
	cache map[string]*Registry
	// per-scope write locks keep load-add-save atomic within this process
	writes map[string]*sync.Mutex
}

func NewProvider(store Store, defaultInterval time.Duration, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		Store:           store,
		DefaultInterval: defaultInterval,
		Log:             log,
		cache:           map[string]*Registry{},
		writes:          map[string]*sync.Mutex{},
	}
}

func (p *Provider) Registry(ctx context.Context, scopeKey string) (*Registry, error) {
	p.mu.Lock()
	if reg, ok := p.cache[scopeKey]; ok {
		p.mu.Unlock()
		return reg, nil
	}
	p.mu.Unlock()

	reg, err := p.load(ctx, scopeKey)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.cache[scopeKey]; ok {
		return cached, nil
	}
	p.cache[scopeKey] = reg
	return reg, nil
}

func (p *Provider) load(ctx context.Context, scopeKey string) (*Registry, error) {
	doc, ok, err := p.Store.Load(ctx, scopeKey, ConfigKey)
	if err != nil {
		return nil, fmt.Errorf("load slots %s: %w", scopeKey, err)
	}
	reg := NewRegistry(scopeKey)
	if ok {
		if err := json.Unmarshal(doc, reg); err != nil {
			return nil, fmt.Errorf("decode slots %s: %w", scopeKey, err)
		}
		return reg, nil
	}
	interval := p.DefaultInterval
	if interval == 0 {
		interval = time.Hour
	}
	if err := reg.SeedUniform(interval); err != nil {
		return nil, err
	}
	p.Log.Info("seeded default slots", zap.String("scope", scopeKey), zap.Duration("interval", interval))
	return reg, nil
}

// AddSlot inserts s into the scope's registry and persists the result.
// The first explicit slot replaces the seeded default.
func (p *Provider) AddSlot(ctx context.Context, scopeKey string, s Slot) (*Registry, error) {
	w := p.writeLock(scopeKey)
	w.Lock()
	defer w.Unlock()

	current, err := p.Registry(ctx, scopeKey)
	if err != nil {
		return nil, err
	}
	next := NewRegistry(scopeKey)
	if current.Configured() {
		for _, ex := range current.Slots() {
			if err := next.Add(ex); err != nil {
				return nil, err
			}
		}
	}
	s.ScopeKey = scopeKey
	if err := next.Add(s); err != nil {
		return nil, err
	}
	if err := p.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Reseed discards the scope's slots and stores a uniform registry.
func (p *Provider) Reseed(ctx context.Context, scopeKey string, interval time.Duration) (*Registry, error) {
	w := p.writeLock(scopeKey)
	w.Lock()
	defer w.Unlock()

	reg := NewRegistry(scopeKey)
	if err := reg.SeedUniform(interval); err != nil {
		return nil, err
	}
	reg.configured = true
	if err := p.save(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (p *Provider) save(ctx context.Context, reg *Registry) error {
	doc, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	if err := p.Store.Save(ctx, reg.ScopeKey(), ConfigKey, doc); err != nil {
		return fmt.Errorf("save slots %s: %w", reg.ScopeKey(), err)
	}
	p.mu.Lock()
	p.cache[reg.ScopeKey()] = reg
	p.mu.Unlock()
	return nil
}

// Invalidate drops the cached registry so the next call reloads it.
func (p *Provider) Invalidate(scopeKey string) {
	p.mu.Lock()
	delete(p.cache, scopeKey)
	p.mu.Unlock()
}

func (p *Provider) writeLock(scopeKey string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.writes[scopeKey]
	if !ok {
		m = &sync.Mutex{}
		p.writes[scopeKey] = m
	}
	return m
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, scopeKey, configKey string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[scopeKey+"/"+configKey]
	return b, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, scopeKey, configKey string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[scopeKey+"/"+configKey] = append([]byte(nil), doc...)
	return nil
}
