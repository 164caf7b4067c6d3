// Package discovery optionally publishes a running tracker over mDNS so a
// client on the same LAN can locate it without a static announce URL baked
// into every torrent it serves. Nothing in the announce protocol itself
// requires this package; it is purely additive.
package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	serviceName     = "_ttorrent-tracker._tcp"
	serviceDomain   = "local."
	serviceInstance = "ttorrent-tracker"
)

var logger = log.New(log.Writer(), "discovery: ", log.LstdFlags)

// Publication is a handle to a running mDNS advertisement; Shutdown
// withdraws it.
type Publication struct {
	server *zeroconf.Server
}

// Shutdown withdraws the mDNS advertisement.
func (p *Publication) Shutdown() {
	p.server.Shutdown()
}

// Publish advertises a tracker listening on port over mDNS.
func Publish(port int) (*Publication, error) {
	server, err := zeroconf.Register(serviceInstance, serviceName, serviceDomain, port, []string{"txtv=0"}, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: could not register service: %w", err)
	}
	logger.Printf("published %s on port %d", serviceName, port)
	return &Publication{server: server}, nil
}

// Find locates a tracker advertised on the local network, returning its
// announce base URL (e.g. "http://192.168.1.5:6969"). Used by operator
// tooling that doesn't want a hardcoded tracker address; never required by
// the announce protocol itself.
func Find(timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("discovery: failed to initialize resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 1)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := resolver.Browse(ctx, serviceName, serviceDomain, entries); err != nil {
		return "", fmt.Errorf("discovery: failed to browse: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("discovery: tracker lookup timed out")
	case entry := <-entries:
		if len(entry.AddrIPv4) == 0 {
			return "", fmt.Errorf("discovery: discovered tracker has no IPv4 address")
		}
		logger.Printf("discovered tracker %s at %s:%d", entry.Instance, entry.AddrIPv4[0], entry.Port)
		return fmt.Sprintf("http://%s:%d", entry.AddrIPv4[0], entry.Port), nil
	}
}
