package analysis

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"go.uber.org/zap"
)

// DefaultRunTTL is how long a run stays reachable after it was registered.
const DefaultRunTTL = 30 * time.Minute

// Session is anything the run pages can poll: live analyses and scenario
// walkthroughs alike.
type Session interface {
	Snapshot(now time.Time) any
	Close()
}

type entry struct {
	session   Session
	expiresAt time.Time
}

// Registry holds sessions by ID until they expire.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	TTL    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewRegistry(ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]*entry),
		TTL:     ttl,
		logger:  logger.Named("registry"),
		now:     time.Now,
	}
}

// NewID returns a fresh session ID.
func (r *Registry) NewID() string {
	return uuid.NewString()
}

// Add registers s under id, replacing and closing any previous session.
func (r *Registry) Add(id string, s Session) {
	r.mu.Lock()
	old := r.entries[id]
	r.entries[id] = &entry{session: s, expiresAt: r.now().Add(r.TTL)}
	r.mu.Unlock()

	if old != nil {
		old.session.Close()
	}
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrRunNotFound
	}

	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok || !r.now().Before(e.expiresAt) {
		return nil, models.ErrRunNotFound
	}
	return e.session, nil
}

// Remove closes and forgets the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.session.Close()
	}
}

// Sweep closes and drops expired sessions. It returns how many were dropped.
func (r *Registry) Sweep() int {
	now := r.now()

	var expired []Session
	r.mu.Lock()
	for id, e := range r.entries {
		if !now.Before(e.expiresAt) {
			expired = append(expired, e.session)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("swept expired runs", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close closes every session. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
