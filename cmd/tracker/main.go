package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ttorrent-go/internal/trackersrv"
	"ttorrent-go/metainfo"
)

func main() {
	port := flag.Int("port", trackersrv.DefaultPort, "Port for the tracker to listen on")
	interval := flag.Duration("interval", 1800*time.Second, "Announce interval handed back to clients")
	freshness := flag.Duration("freshness", 0, "Peer freshness window (defaults to 2x -interval)")
	discover := flag.Bool("discover", false, "Publish this tracker over mDNS")
	flag.Parse()

	torrentPaths := flag.Args()
	if len(torrentPaths) == 0 {
		log.Fatal("usage: tracker [flags] torrent-file...")
	}

	tracker := trackersrv.NewTracker(trackersrv.Config{
		Addr:             fmt.Sprintf(":%d", *port),
		AnnounceInterval: *interval,
		FreshnessWindow:  *freshness,
		EnableDiscovery:  *discover,
	})

	for _, path := range torrentPaths {
		torrent, err := metainfo.Load(path, true)
		if err != nil {
			log.Fatalf("failed to load %s: %v", path, err)
		}
		tt := tracker.Admit(torrent)
		log.Printf("admitted %s (%s)", tt.Name(), tt.HexInfoHash())
	}

	if err := tracker.Start(); err != nil {
		log.Fatalf("failed to start tracker: %v", err)
	}
	log.Printf("tracker listening on %s", tracker.Addr())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("shutting down...")
	if err := tracker.Stop(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
