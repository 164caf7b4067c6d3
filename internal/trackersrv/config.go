package trackersrv

import (
	"fmt"
	"time"
)

// Version is surfaced in the Server banner.
const Version = "0.1"

// DefaultPort is the BitTorrent tracker convention port.
const DefaultPort = 6969

// Config configures a Tracker's HTTP listener and announce policy.
type Config struct {
	// Addr is the listen address, e.g. ":6969". Defaults to
	// ":<DefaultPort>" if empty.
	Addr string

	// AnnounceInterval is handed back to clients as the bencoded
	// "interval" field. Defaults to 1800s (production-scale) if zero.
	AnnounceInterval time.Duration

	// FreshnessWindow is how long a peer may go without re-announcing
	// before the reaper considers it gone. Must be strictly greater than
	// AnnounceInterval. Defaults to 2x AnnounceInterval if zero.
	FreshnessWindow time.Duration

	// EnableDiscovery publishes this tracker over mDNS so LAN clients can
	// find it without a hardcoded announce URL. Never required for
	// /announce to function.
	EnableDiscovery bool
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = fmt.Sprintf(":%d", DefaultPort)
	}
	if c.AnnounceInterval == 0 {
		c.AnnounceInterval = 1800 * time.Second
	}
	if c.FreshnessWindow == 0 {
		c.FreshnessWindow = 2 * c.AnnounceInterval
	}
	return c
}
