package tracker

import (
	"sync"
	"time"
)

// Registry owns the tracker-wide, concurrent map from hex info-hash to
// TrackedTorrent. Admission (Announce) is serialized against itself so two
// concurrent registrations of the same torrent can't race to create two
// different TrackedTorrent values for one info-hash; lookups never take
// the admission lock and so never block behind it.
//
// This is an owned value per tracker instance, not a process-wide
// singleton: callers construct one Registry per Tracker and nothing here
// reaches for global state.
type Registry struct {
	admit sync.Mutex

	mu       sync.RWMutex
	torrents map[string]*TrackedTorrent

	timers   map[string]*time.Timer
	timersMu sync.Mutex
}

// NewRegistry creates an empty torrent registry.
func NewRegistry() *Registry {
	return &Registry{
		torrents: make(map[string]*TrackedTorrent),
		timers:   make(map[string]*time.Timer),
	}
}

// Announce admits torrent into the registry. If a torrent with the same
// hex info-hash is already registered, Announce is a no-op and returns the
// existing TrackedTorrent rather than overwriting it — this is what makes
// the tracker a closed tracker with idempotent admission rather than a
// server that can be told to forget and re-learn a swarm mid-flight.
func (r *Registry) Announce(torrent *TrackedTorrent) *TrackedTorrent {
	r.admit.Lock()
	defer r.admit.Unlock()

	r.mu.RLock()
	existing, ok := r.torrents[torrent.HexInfoHash()]
	r.mu.RUnlock()
	if ok {
		logger.Printf("torrent %s (%s) already announced, ignoring re-announce", existing.HexInfoHash(), existing.Name())
		return existing
	}

	r.mu.Lock()
	r.torrents[torrent.HexInfoHash()] = torrent
	r.mu.Unlock()

	logger.Printf("registered torrent %s (%s)", torrent.HexInfoHash(), torrent.Name())
	return torrent
}

// Get looks up a torrent by hex info-hash. Lock-free with respect to
// Announce beyond a single RWMutex read lock.
func (r *Registry) Get(hexInfoHash string) (*TrackedTorrent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.torrents[hexInfoHash]
	return t, ok
}

// All returns a snapshot of every registered torrent.
func (r *Registry) All() []*TrackedTorrent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TrackedTorrent, 0, len(r.torrents))
	for _, t := range r.torrents {
		out = append(out, t)
	}
	return out
}

// Remove immediately stops tracking hexInfoHash, cancelling any pending
// RemoveAfter timer for it.
func (r *Registry) Remove(hexInfoHash string) {
	r.timersMu.Lock()
	if timer, ok := r.timers[hexInfoHash]; ok {
		timer.Stop()
		delete(r.timers, hexInfoHash)
	}
	r.timersMu.Unlock()

	r.mu.Lock()
	delete(r.torrents, hexInfoHash)
	r.mu.Unlock()
}

// RemoveAfter schedules hexInfoHash's removal after delay. A subsequent
// Remove or RemoveAfter for the same hash supersedes the pending timer.
func (r *Registry) RemoveAfter(hexInfoHash string, delay time.Duration) {
	r.timersMu.Lock()
	defer r.timersMu.Unlock()

	if existing, ok := r.timers[hexInfoHash]; ok {
		existing.Stop()
	}
	r.timers[hexInfoHash] = time.AfterFunc(delay, func() {
		r.Remove(hexInfoHash)
	})
}

// Count returns the number of registered torrents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.torrents)
}
