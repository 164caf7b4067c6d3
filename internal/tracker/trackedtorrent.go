package tracker

import (
	"log"
	"net"
	"sync"
	"time"
)

var logger = log.New(log.Writer(), "tracker: ", log.LstdFlags)

// AnnounceUpdate carries one client announce request's effect on a
// TrackedTorrent's peer table.
type AnnounceUpdate struct {
	ID         PeerID
	IP         net.IP
	Port       uint16
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	Event      Event
	Now        time.Time
}

// TrackedTorrent owns one torrent's peer table: a map from hex peer-id to
// Peer, guarded by a single mutex so that seeder/leecher counts observed by
// a request reflect a consistent snapshot. The reaper takes the same guard
// briefly, per peer, during its sweeps.
type TrackedTorrent struct {
	hexInfoHash string
	name        string

	mu    sync.Mutex
	peers map[string]*Peer
}

// NewTrackedTorrent creates an empty peer table for the torrent identified
// by hexInfoHash.
func NewTrackedTorrent(hexInfoHash, name string) *TrackedTorrent {
	return &TrackedTorrent{
		hexInfoHash: hexInfoHash,
		name:        name,
		peers:       make(map[string]*Peer),
	}
}

func (t *TrackedTorrent) HexInfoHash() string { return t.hexInfoHash }
func (t *TrackedTorrent) Name() string        { return t.name }

// Seeders returns the count of peers with Left == 0.
func (t *TrackedTorrent) Seeders() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.peers {
		if p.Left == 0 {
			n++
		}
	}
	return n
}

// Leechers returns the count of peers with Left > 0.
func (t *TrackedTorrent) Leechers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.peers {
		if p.Left > 0 {
			n++
		}
	}
	return n
}

// PeerCount returns the total number of tracked peers.
func (t *TrackedTorrent) PeerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.peers)
}

// Peers returns a snapshot copy of every tracked peer.
func (t *TrackedTorrent) Peers() []Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Peer, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, *p)
	}
	return out
}

// PeersExcluding returns up to limit tracked peers other than excludeHex.
// limit < 0 means unbounded; limit == 0 returns no peers, matching a
// client that explicitly announces numwant=0.
func (t *TrackedTorrent) PeersExcluding(excludeHex string, limit int) []Peer {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Peer, 0, len(t.peers))
	for hexID, p := range t.peers {
		if hexID == excludeHex {
			continue
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
		out = append(out, *p)
	}
	return out
}

// Announce applies one client announce to this torrent's peer table,
// following the event transition table:
//
//	STARTED:           insert-or-update, state=STARTED
//	none/UNKNOWN:      insert (state=STARTED) or update stats + refresh timestamp
//	COMPLETED:         insert-or-update, state=COMPLETED
//	STOPPED:           ignore if unknown; remove if known
//
// The peer's LastAnnounce is refreshed on every successful announce except
// a STOPPED removal. It returns the resulting Peer (or nil if the peer was
// removed or a STOPPED event for an unknown peer was ignored).
func (t *TrackedTorrent) Announce(u AnnounceUpdate) *Peer {
	hexID := u.ID.HexString()

	t.mu.Lock()
	defer t.mu.Unlock()

	existing, known := t.peers[hexID]

	if u.Event == EventStopped {
		if known {
			delete(t.peers, hexID)
			logger.Printf("torrent %s: peer %s stopped, removed", t.hexInfoHash, hexID)
		}
		return nil
	}

	if !known {
		p := &Peer{
			ID:           u.ID,
			IP:           u.IP,
			Port:         u.Port,
			Uploaded:     u.Uploaded,
			Downloaded:   u.Downloaded,
			Left:         u.Left,
			LastAnnounce: u.Now,
		}
		switch u.Event {
		case EventCompleted:
			p.State = PeerCompleted
		default:
			p.State = PeerStarted
		}
		t.peers[hexID] = p
		logger.Printf("torrent %s: peer %s registered (%s)", t.hexInfoHash, hexID, p.State)
		return p
	}

	existing.IP = u.IP
	existing.Port = u.Port
	existing.Uploaded = u.Uploaded
	existing.Downloaded = u.Downloaded
	existing.Left = u.Left
	existing.LastAnnounce = u.Now
	switch u.Event {
	case EventStarted:
		existing.State = PeerStarted
	case EventCompleted:
		existing.State = PeerCompleted
	}
	return existing
}

// CollectUnfreshPeers removes every peer whose LastAnnounce is at least
// freshness old relative to now, returning the number removed. The table
// lock is taken once to snapshot the peer ids and then once per peer, so
// announces can proceed between individual removals.
func (t *TrackedTorrent) CollectUnfreshPeers(now time.Time, freshness time.Duration) int {
	t.mu.Lock()
	ids := make([]string, 0, len(t.peers))
	for hexID := range t.peers {
		ids = append(ids, hexID)
	}
	t.mu.Unlock()

	removed := 0
	for _, hexID := range ids {
		t.mu.Lock()
		if p, ok := t.peers[hexID]; ok && now.Sub(p.LastAnnounce) >= freshness {
			delete(t.peers, hexID)
			removed++
		}
		t.mu.Unlock()
	}
	return removed
}
