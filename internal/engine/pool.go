package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Notifier delivers a signal whenever a user's rows change. The returned
// function stops delivery.
type Notifier interface {
	Subscribe(userID int64) (<-chan struct{}, func())
}

// Factory builds an engine for one user.
type Factory func(ctx context.Context, userID int64) (*Engine, error)

type poolEntry struct {
	engine      *Engine
	cancel      context.CancelFunc
	unsubscribe func()
	lastUsed    time.Time
}

// Pool holds one loaded engine per active user. Engines follow the user's
// change feed and are dropped after sitting idle for the TTL.
type Pool struct {
	factory  Factory
	notifier Notifier
	idleTTL  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[int64]*poolEntry
}

func NewPool(factory Factory, notifier Notifier, idleTTL time.Duration, logger *slog.Logger) *Pool {
	return &Pool{
		factory:  factory,
		notifier: notifier,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
		entries:  make(map[int64]*poolEntry),
	}
}

// Get returns the user's engine, loading it on first use.
func (p *Pool) Get(ctx context.Context, userID int64) (*Engine, error) {
	p.mu.Lock()
	if entry, ok := p.entries[userID]; ok {
		entry.lastUsed = p.now()
		p.mu.Unlock()
		return entry.engine, nil
	}
	p.mu.Unlock()

	eng, err := p.factory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	// Subscribe before the first load so writes landing during it still
	// trigger a refetch.
	changes, unsubscribe := p.notifier.Subscribe(userID)
	if err := eng.Refresh(ctx); err != nil {
		unsubscribe()
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another request may have loaded the same user meanwhile.
	if entry, ok := p.entries[userID]; ok {
		unsubscribe()
		entry.lastUsed = p.now()
		return entry.engine, nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	go eng.Watch(watchCtx, changes)

	p.entries[userID] = &poolEntry{
		engine:      eng,
		cancel:      cancel,
		unsubscribe: unsubscribe,
		lastUsed:    p.now(),
	}
	p.logger.Debug("engine loaded", "user_id", userID)
	return eng, nil
}

// Evict drops the user's engine, if loaded.
func (p *Pool) Evict(userID int64) {
	p.mu.Lock()
	entry, ok := p.entries[userID]
	delete(p.entries, userID)
	p.mu.Unlock()
	if ok {
		entry.stop()
	}
}

// EvictIdle drops engines unused for longer than the idle TTL and returns
// how many were removed.
func (p *Pool) EvictIdle() int {
	cutoff := p.now().Add(-p.idleTTL)
	var stale []*poolEntry

	p.mu.Lock()
	for id, entry := range p.entries {
		if entry.lastUsed.Before(cutoff) {
			stale = append(stale, entry)
			delete(p.entries, id)
		}
	}
	p.mu.Unlock()

	for _, entry := range stale {
		entry.stop()
	}
	if len(stale) > 0 {
		p.logger.Debug("evicted idle engines", "count", len(stale))
	}
	return len(stale)
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close stops every engine.
func (p *Pool) Close() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[int64]*poolEntry)
	p.mu.Unlock()

	for _, entry := range entries {
		entry.stop()
	}
}

func (e *poolEntry) stop() {
	e.unsubscribe()
	e.cancel()
}
