package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ttorrent-go/hashing"
	"ttorrent-go/internal/discovery"
	"ttorrent-go/metainfo"
)

// discoveryTimeout bounds how long create waits for an mDNS-advertised
// tracker before giving up.
const discoveryTimeout = 5 * time.Second

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	createAnnounce := createCmd.String("announce", "", "Primary announce URL")
	createDiscover := createCmd.Bool("discover", false, "Discover a tracker via mDNS when -announce is not given")
	createCreatedBy := createCmd.String("created-by", "", "Value for the metainfo's created-by field")
	createOutput := createCmd.String("o", "", "Output .torrent path (required)")

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println("usage: torrentutil <create|inspect|verify> [options]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		source := createCmd.Arg(0)
		if source == "" || *createOutput == "" {
			log.Fatal("create requires a source path and -o")
		}
		handleCreate(source, *createAnnounce, *createDiscover, *createCreatedBy, *createOutput)

	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		path := inspectCmd.Arg(0)
		if path == "" {
			log.Fatal("inspect requires a .torrent path")
		}
		handleInspect(path)

	case "verify":
		verifyCmd.Parse(os.Args[2:])
		path := verifyCmd.Arg(0)
		dataDir := verifyCmd.Arg(1)
		if path == "" || dataDir == "" {
			log.Fatal("verify requires a .torrent path and a data directory")
		}
		handleVerify(path, dataDir)

	default:
		fmt.Printf("unknown command %q. Use 'create', 'inspect' or 'verify'.\n", os.Args[1])
		os.Exit(1)
	}
}

func handleCreate(source, announce string, discover bool, createdBy, output string) {
	info, err := os.Stat(source)
	if err != nil {
		log.Fatalf("could not stat %s: %v", source, err)
	}

	if announce == "" && discover {
		found, err := discovery.Find(discoveryTimeout)
		if err != nil {
			log.Fatalf("mDNS tracker discovery failed: %v", err)
		}
		announce = found + "/announce"
		log.Printf("discovered tracker at %s", announce)
	}

	var files []string
	parent := source
	if info.IsDir() {
		err := filepath.Walk(source, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			rel, err := filepath.Rel(source, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
			return nil
		})
		if err != nil {
			log.Fatalf("could not walk %s: %v", source, err)
		}
	}

	torrent, err := metainfo.Create(parent, files, announce, nil, createdBy)
	if err != nil {
		log.Fatalf("could not create torrent: %v", err)
	}

	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("could not create %s: %v", output, err)
	}
	defer f.Close()
	if _, err := torrent.WriteTo(f); err != nil {
		log.Fatalf("could not write %s: %v", output, err)
	}

	log.Printf("created %s: info-hash %s, %d piece(s)", output, torrent.HexInfoHash(), len(torrent.Pieces())/hashing.PieceSize)
}

func handleInspect(path string) {
	torrent, err := metainfo.Load(path, false)
	if err != nil {
		log.Fatalf("could not load %s: %v", path, err)
	}

	fmt.Printf("name:        %s\n", torrent.Name())
	fmt.Printf("info-hash:   %s\n", torrent.HexInfoHash())
	fmt.Printf("size:        %d bytes\n", torrent.Size())
	fmt.Printf("piece len:   %d bytes\n", torrent.PieceLength())
	fmt.Printf("pieces:      %d\n", len(torrent.Pieces())/hashing.PieceSize)
	fmt.Printf("multifile:   %v\n", torrent.IsMultifile())
	if comment := torrent.Comment(); comment != "" {
		fmt.Printf("comment:     %s\n", comment)
	}
	if createdBy := torrent.CreatedBy(); createdBy != "" {
		fmt.Printf("created by:  %s\n", createdBy)
	}
	if torrent.IsTrackerless() {
		fmt.Println("trackers:    (trackerless)")
	} else {
		var tiers []string
		for _, tier := range torrent.AnnounceList() {
			var urls []string
			for _, u := range tier {
				urls = append(urls, u.String())
			}
			tiers = append(tiers, strings.Join(urls, ", "))
		}
		fmt.Printf("trackers:    %s\n", strings.Join(tiers, " | "))
	}
	for _, file := range torrent.Files() {
		fmt.Printf("  %10d  %s\n", file.Length, file.Path)
	}
}

func handleVerify(path, dataDir string) {
	torrent, err := metainfo.Load(path, false)
	if err != nil {
		log.Fatalf("could not load %s: %v", path, err)
	}

	var paths []string
	if torrent.IsMultifile() {
		for _, file := range torrent.Files() {
			paths = append(paths, filepath.Join(dataDir, file.Path))
		}
	} else {
		paths = []string{filepath.Join(dataDir, torrent.Name())}
	}

	bad, err := hashing.Verify(paths, torrent.PieceLength(), torrent.Pieces())
	if err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	if len(bad) == 0 {
		fmt.Println("OK: all pieces match")
		return
	}
	fmt.Printf("FAILED: %d piece(s) mismatched: %v\n", len(bad), bad)
	os.Exit(1)
}
