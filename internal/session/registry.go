package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/logger"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("booking session not found")

type entry struct {
	mu       sync.Mutex
	manager  *booking.Manager
	lastSeen time.Time
}

// Registry owns one booking.Manager per browsing session and serialises
// every access to it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

func NewRegistry(ttl time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		logger:   log,
	}
}

// Create starts an empty session and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{manager: booking.NewManager(), lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.Debug("SESSION", fmt.Sprintf("Created booking session %s", id))
	return id
}

// With runs fn with exclusive access to the session's manager.
func (r *Registry) With(id string, fn func(m *booking.Manager) error) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = r.now()
	return fn(e.manager)
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.logger.Info("SESSION", fmt.Sprintf("Evicted %d idle booking sessions", n))
				}
			}
		}
	}()
}
