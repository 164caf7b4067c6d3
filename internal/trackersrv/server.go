package trackersrv

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"

	"ttorrent-go/internal/byteutil"
	"ttorrent-go/internal/discovery"
	"ttorrent-go/internal/tracker"
	"ttorrent-go/metainfo"
)

var logger = log.New(log.Writer(), "trackersrv: ", log.LstdFlags)

// State is a Tracker's lifecycle state.
type State int

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Stopping:
		return "STOPPING"
	default:
		return "STOPPED"
	}
}

// Tracker serves the announce HTTP protocol over a registry of admitted
// torrents, paired with a reaper sweeping stale peers in the background.
// Lifecycle: STOPPED -> RUNNING (bind succeeded) -> STOPPING -> STOPPED.
type Tracker struct {
	cfg Config

	registry *tracker.Registry
	reaper   *tracker.Reaper

	httpServer *http.Server
	listener   net.Listener
	discovery  *discovery.Publication

	mu    sync.Mutex
	state State
}

// Addr returns the address the tracker is bound to. Only meaningful once
// Start has returned successfully.
func (s *Tracker) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// NewTracker constructs a Tracker in the STOPPED state. Call Start to bind
// the listener and begin serving.
func NewTracker(cfg Config) *Tracker {
	cfg = cfg.withDefaults()
	registry := tracker.NewRegistry()
	return &Tracker{
		cfg:      cfg,
		registry: registry,
		reaper:   tracker.NewReaperWithConfig(registry, tracker.CollectionInterval, cfg.FreshnessWindow),
	}
}

// Admit registers t with the tracker, making it available for announces.
// Idempotent: re-admitting an already-registered info-hash is a no-op.
func (s *Tracker) Admit(t *metainfo.Torrent) *tracker.TrackedTorrent {
	hash := t.InfoHash()
	return s.registry.Announce(tracker.NewTrackedTorrent(byteutil.HexLower(hash[:]), t.Name()))
}

// Remove immediately stops tracking hexInfoHash.
func (s *Tracker) Remove(hexInfoHash string) { s.registry.Remove(hexInfoHash) }

// RemoveAfter schedules hexInfoHash's removal after delay.
func (s *Tracker) RemoveAfter(hexInfoHash string, delay time.Duration) {
	s.registry.RemoveAfter(hexInfoHash, delay)
}

// State reports the tracker's current lifecycle state.
func (s *Tracker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start binds the configured listen address, retrying the bind with
// exponential backoff (a restart immediately after a crash often hits a
// port still in TIME_WAIT) and then serves /announce until Stop is called.
// It returns once the listener is bound; serving continues in a background
// goroutine.
func (s *Tracker) Start() error {
	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		return fmt.Errorf("trackersrv: Start called in state %s", s.state)
	}
	s.mu.Unlock()

	var listener net.Listener
	bindOp := func() error {
		l, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			logger.Printf("bind %s failed, retrying: %v", s.cfg.Addr, err)
			return err
		}
		listener = l
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(bindOp, b); err != nil {
		return fmt.Errorf("trackersrv: TrackerStartup: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/announce", s.handleAnnounce)
	s.httpServer = &http.Server{Handler: mux}

	s.reaper.Start()

	if s.cfg.EnableDiscovery {
		port := listener.Addr().(*net.TCPAddr).Port
		pub, err := discovery.Publish(port)
		if err != nil {
			logger.Printf("mDNS publication failed, continuing without it: %v", err)
		} else {
			s.discovery = pub
		}
	}

	s.mu.Lock()
	s.listener = listener
	s.state = Running
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Printf("serve error: %v", err)
		}
	}()

	logger.Printf("listening on %s (%s)", listener.Addr(), bannerString())
	return nil
}

// Stop closes the listener, signals the reaper, and waits for in-flight
// requests to complete or the shutdown context to expire.
func (s *Tracker) Stop() error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	s.state = Stopping
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	s.reaper.Stop()
	if s.discovery != nil {
		s.discovery.Shutdown()
	}

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return err
}

func bannerString() string {
	return fmt.Sprintf("BitTorrent Tracker (%s)", Version)
}

func (s *Tracker) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.New().String()
	w.Header().Set("Server", bannerString())
	w.Header().Set("Content-Type", "text/plain")

	req, aerr := parseAnnounceRequest(r)
	if aerr != nil {
		logger.Printf("[%s] announce rejected: %v", correlationID, aerr)
		w.Write(encodeFailure(aerr.Reason))
		return
	}

	hexInfoHash := byteutil.HexLower([]byte(req.infoHash))
	tt, ok := s.registry.Get(hexInfoHash)
	if !ok {
		aerr := unknownTorrent(hexInfoHash)
		logger.Printf("[%s] %v", correlationID, aerr)
		w.Write(encodeFailure(aerr.Reason))
		return
	}

	tt.Announce(tracker.AnnounceUpdate{
		ID:         req.peerID,
		IP:         req.ip,
		Port:       req.port,
		Uploaded:   req.uploaded,
		Downloaded: req.downloaded,
		Left:       req.left,
		Event:      req.event,
		Now:        time.Now(),
	})

	peers := tt.PeersExcluding(req.peerID.HexString(), req.numwant)
	logger.Printf("[%s] announce torrent=%s peer=%s event=%s -> %d peer(s)",
		correlationID, hexInfoHash, req.peerID.HexString(), req.event, len(peers))

	w.Write(encodeAnnounceResponse(tt, peers, int(s.cfg.AnnounceInterval.Seconds()), req.compact))
}
