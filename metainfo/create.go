package metainfo

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"ttorrent-go/bencode"
	"ttorrent-go/hashing"
	"ttorrent-go/internal/byteutil"
)

// Create builds a new torrent's metainfo by hashing local files and
// returns a seeder-mode Torrent.
//
// When files is empty, parent itself is the single file to share: the
// torrent's name is parent's base name and info.length is its size. When
// files is non-empty, parent is treated as the shared root directory and
// each entry of files (absolute, or relative to parent) becomes one
// info.files entry, with its path stored relative to parent.
//
// At least one of announce or announceList must be non-empty to produce a
// tracked torrent; supplying neither produces a trackerless torrent.
// Supplying both emits both "announce" and "announce-list".
func Create(parent string, files []string, announce string, announceList [][]string, createdBy string) (*Torrent, error) {
	var absFiles []string
	var relComponents [][]string
	single := len(files) == 0

	if single {
		absFiles = []string{parent}
	} else {
		for _, f := range files {
			full := f
			if !filepath.IsAbs(full) {
				full = filepath.Join(parent, full)
			}
			rel, err := filepath.Rel(parent, full)
			if err != nil {
				return nil, fmt.Errorf("metainfo: create: %s: %w", f, err)
			}
			components := splitPath(rel)
			if len(components) == 0 {
				return nil, fmt.Errorf("%w: file %q has zero path components", ErrMalformed, f)
			}
			absFiles = append(absFiles, full)
			relComponents = append(relComponents, components)
		}
	}

	lengths := make([]int64, len(absFiles))
	var totalSize int64
	for i, f := range absFiles {
		fi, err := os.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("metainfo: create: %w", err)
		}
		lengths[i] = fi.Size()
		totalSize += fi.Size()
	}

	pieceLength := int64(hashing.DefaultPieceLength)
	pieces, err := hashing.HashFiles(absFiles, pieceLength)
	if err != nil {
		return nil, fmt.Errorf("metainfo: create: %w", err)
	}

	info := map[string]bencode.Value{
		"name":         bencode.NewString(byteutil.StringToISO88591(filepath.Base(parent))),
		"piece length": bencode.NewInt(pieceLength),
		"pieces":       bencode.NewString(pieces),
	}

	if single {
		info["length"] = bencode.NewInt(lengths[0])
	} else {
		fileVals := make([]bencode.Value, len(absFiles))
		for i := range absFiles {
			pathVals := make([]bencode.Value, len(relComponents[i]))
			for j, c := range relComponents[i] {
				pathVals[j] = bencode.NewString(byteutil.StringToISO88591(c))
			}
			fileVals[i] = bencode.NewDict(map[string]bencode.Value{
				"length": bencode.NewInt(lengths[i]),
				"path":   bencode.NewList(pathVals),
			})
		}
		info["files"] = bencode.NewList(fileVals)
	}

	top := map[string]bencode.Value{
		"info":          bencode.NewDict(info),
		"creation date": bencode.NewInt(time.Now().Unix()),
	}
	if createdBy != "" {
		top["created by"] = bencode.NewString(byteutil.StringToISO88591(createdBy))
	}

	if announce != "" {
		if err := validateURI(announce); err != nil {
			return nil, err
		}
		top["announce"] = bencode.NewString(byteutil.StringToISO88591(announce))
	}
	if len(announceList) > 0 {
		tiers := make([]bencode.Value, 0, len(announceList))
		for _, tier := range announceList {
			trackerVals := make([]bencode.Value, 0, len(tier))
			for _, uri := range tier {
				if err := validateURI(uri); err != nil {
					return nil, err
				}
				trackerVals = append(trackerVals, bencode.NewString(byteutil.StringToISO88591(uri)))
			}
			tiers = append(tiers, bencode.NewList(trackerVals))
		}
		top["announce-list"] = bencode.NewList(tiers)
	}

	encoded := bencode.Encode(bencode.NewDict(top))

	// Re-decode rather than constructing the Torrent by hand: this is the
	// same trick the original Java implementation uses (it bencodes the
	// map it just built and feeds the bytes back through its own
	// constructor) and it guarantees Create and Parse can never disagree
	// about how a torrent's derived fields are computed.
	return Parse(encoded, true)
}

func validateURI(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURI, raw)
	}
	return nil
}
