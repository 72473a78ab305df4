package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMaxSessionsPerOwner bounds how many sessions one user may keep open at once.
const DefaultMaxSessionsPerOwner = 16

type registryEntry struct {
	session *Session
	seq     uint64
}

// Registry keeps the reply sessions of every user for the lifetime of the process.
// A session belongs to the user that created it; the same id used by another user
// names a different session. Once an owner holds max sessions, opening another one
// evicts that owner's least recently used session.
type Registry struct {
	mu     sync.Mutex
	max    int
	seq    uint64
	size   int
	owners map[string]map[string]*registryEntry
}

func NewRegistry() *Registry {
	return NewRegistryWithLimit(DefaultMaxSessionsPerOwner)
}

// NewRegistryWithLimit is NewRegistry with a custom per-owner limit. Values below 1 mean 1.
// The number of live sessions is reported as the reply_sessions gauge.
func NewRegistryWithLimit(limit int) *Registry {
	return newRegistry(limit, otel.Meter("marketplace"))
}

func newRegistry(limit int, meter metric.Meter) *Registry {
	r := &Registry{max: max(limit, 1), owners: make(map[string]map[string]*registryEntry)}
	_, err := meter.Int64ObservableGauge("reply_sessions",
		metric.WithDescription("Number of reply sessions currently held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(r.Len()))
			return nil
		}),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create reply_sessions gauge: %v", err))
	}
	return r
}

// Get returns the session id of owner, creating an idle one on first use.
func (r *Registry) Get(owner, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	sessions := r.owners[owner]
	if e, ok := sessions[id]; ok {
		e.seq = r.seq
		return e.session
	}
	if sessions == nil {
		sessions = make(map[string]*registryEntry)
		r.owners[owner] = sessions
	}
	if len(sessions) >= r.max {
		r.evictOldest(sessions)
	}
	e := &registryEntry{session: NewSession(), seq: r.seq}
	sessions[id] = e
	r.size++
	return e.session
}

// End forgets the session id of owner. A later Get starts over from Idle.
func (r *Registry) End(owner, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions, ok := r.owners[owner]
	if !ok {
		return
	}
	if _, ok := sessions[id]; !ok {
		return
	}
	delete(sessions, id)
	r.size--
	if len(sessions) == 0 {
		delete(r.owners, owner)
	}
}

// Len returns the number of live sessions across all owners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Registry) evictOldest(sessions map[string]*registryEntry) {
	var oldest string
	var oldestSeq uint64
	for id, e := range sessions {
		if oldestSeq == 0 || e.seq < oldestSeq {
			oldest, oldestSeq = id, e.seq
		}
	}
	delete(sessions, oldest)
	r.size--
}
