// Package metainfo implements the torrent metainfo model: parsing a
// .torrent byte blob (or building one from local files) into an in-memory,
// effectively-immutable Torrent value that deterministically exposes the
// canonical 20-byte info-hash, announce tiers, and file list.
package metainfo

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"ttorrent-go/bencode"
	"ttorrent-go/internal/byteutil"
)

// File describes one file contained in a torrent, named relative to the
// torrent's root (the platform path separator, for consumption by a
// storage-layer collaborator — canonical bencoded output always uses "/").
type File struct {
	Path   string
	Length int64
}

// Torrent is the in-memory representation of a torrent's metainfo. It is
// shared by value and immutable after construction: the info-hash, once
// computed, never changes.
type Torrent struct {
	encoded  []byte
	infoRaw  []byte
	infoHash [20]byte
	hexHash  string

	announceList [][]*url.URL

	creationDate *time.Time
	comment      string
	createdBy    string

	name        string
	size        int64
	pieceLength int64
	pieces      []byte
	files       []File
	multifile   bool

	seeder bool
}

var logger = log.New(log.Writer(), "metainfo: ", log.LstdFlags)

// Parse decodes a bencoded .torrent byte blob into a Torrent. seeder
// records whether the caller already holds complete, verified data for
// this torrent (a seeder does not need local-data validation).
func Parse(data []byte, seeder bool) (*Torrent, error) {
	top, n, err := bencode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: trailing bytes after top-level value", ErrMalformed)
	}

	topDict, err := top.AsDict()
	if err != nil {
		return nil, fmt.Errorf("%w: top-level value is not a dict: %v", ErrMalformed, err)
	}

	infoVal, ok := topDict["info"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"info\" key", ErrMalformed)
	}
	infoDict, err := infoVal.AsDict()
	if err != nil {
		return nil, fmt.Errorf("%w: \"info\" is not a dict: %v", ErrMalformed, err)
	}

	infoRaw := append([]byte(nil), infoVal.Raw...)
	hash := byteutil.SHA1(infoRaw)

	t := &Torrent{
		encoded:  append([]byte(nil), data...),
		infoRaw:  infoRaw,
		infoHash: hash,
		hexHash:  byteutil.HexUpper(hash[:]),
		seeder:   seeder,
	}

	if err := t.parseAnnounce(topDict); err != nil {
		return nil, err
	}

	if v, ok := topDict["creation date"]; ok {
		secs, err := v.AsInt()
		if err != nil {
			return nil, fmt.Errorf("%w: \"creation date\" is not an integer: %v", ErrMalformed, err)
		}
		ts := time.Unix(secs, 0).UTC()
		t.creationDate = &ts
	}
	if v, ok := topDict["comment"]; ok {
		s, err := v.AsString()
		if err != nil {
			return nil, fmt.Errorf("%w: \"comment\" is not a string: %v", ErrMalformed, err)
		}
		t.comment = byteutil.ISO88591ToString(s)
	}
	if v, ok := topDict["created by"]; ok {
		s, err := v.AsString()
		if err != nil {
			return nil, fmt.Errorf("%w: \"created by\" is not a string: %v", ErrMalformed, err)
		}
		t.createdBy = byteutil.ISO88591ToString(s)
	}

	nameVal, ok := infoDict["name"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"info.name\"", ErrMalformed)
	}
	nameBytes, err := nameVal.AsString()
	if err != nil {
		return nil, fmt.Errorf("%w: \"info.name\" is not a string: %v", ErrMalformed, err)
	}
	t.name = byteutil.ISO88591ToString(nameBytes)

	if v, ok := infoDict["piece length"]; ok {
		pl, err := v.AsInt()
		if err != nil {
			return nil, fmt.Errorf("%w: \"info.piece length\" is not an integer: %v", ErrMalformed, err)
		}
		t.pieceLength = pl
	}
	if v, ok := infoDict["pieces"]; ok {
		p, err := v.AsString()
		if err != nil {
			return nil, fmt.Errorf("%w: \"info.pieces\" is not a string: %v", ErrMalformed, err)
		}
		t.pieces = append([]byte(nil), p...)
	}

	if err := t.parseFiles(infoDict); err != nil {
		return nil, err
	}

	logger.Printf("%s-file torrent %q: %d file(s), %d byte(s), %d tier(s)",
		multifileLabel(t.multifile), t.name, len(t.files), t.size, len(t.announceList))

	return t, nil
}

func multifileLabel(multi bool) string {
	if multi {
		return "multi"
	}
	return "single"
}

// parseAnnounce extracts announce tiers per BEP#0012: announce-list takes
// precedence if present; otherwise the single "announce" field becomes a
// one-tracker tier. Duplicate URIs across tiers are dropped on read, but
// tier membership and operator-supplied order are preserved.
func (t *Torrent) parseAnnounce(top map[string]bencode.Value) error {
	seen := make(map[string]bool)

	addURI := func(raw string) (*url.URL, error) {
		u, err := url.ParseRequestURI(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, raw)
		}
		return u, nil
	}

	if v, ok := top["announce-list"]; ok {
		tiers, err := v.AsList()
		if err != nil {
			return fmt.Errorf("%w: \"announce-list\" is not a list: %v", ErrMalformed, err)
		}
		for _, tv := range tiers {
			trackerVals, err := tv.AsList()
			if err != nil {
				return fmt.Errorf("%w: announce-list tier is not a list: %v", ErrMalformed, err)
			}
			if len(trackerVals) == 0 {
				continue
			}
			var tier []*url.URL
			for _, trackerVal := range trackerVals {
				raw, err := trackerVal.AsString()
				if err != nil {
					return fmt.Errorf("%w: announce-list entry is not a string: %v", ErrMalformed, err)
				}
				s := byteutil.ISO88591ToString(raw)
				if seen[s] {
					continue
				}
				u, err := addURI(s)
				if err != nil {
					return err
				}
				seen[s] = true
				tier = append(tier, u)
			}
			if len(tier) > 0 {
				t.announceList = append(t.announceList, tier)
			}
		}
		return nil
	}

	if v, ok := top["announce"]; ok {
		raw, err := v.AsString()
		if err != nil {
			return fmt.Errorf("%w: \"announce\" is not a string: %v", ErrMalformed, err)
		}
		s := byteutil.ISO88591ToString(raw)
		u, err := addURI(s)
		if err != nil {
			return err
		}
		t.announceList = [][]*url.URL{{u}}
	}

	return nil
}

func (t *Torrent) parseFiles(info map[string]bencode.Value) error {
	if filesVal, ok := info["files"]; ok {
		fileList, err := filesVal.AsList()
		if err != nil {
			return fmt.Errorf("%w: \"info.files\" is not a list: %v", ErrMalformed, err)
		}
		t.multifile = true
		var total int64
		for _, fv := range fileList {
			fd, err := fv.AsDict()
			if err != nil {
				return fmt.Errorf("%w: file entry is not a dict: %v", ErrMalformed, err)
			}
			lengthVal, ok := fd["length"]
			if !ok {
				return fmt.Errorf("%w: file entry missing \"length\"", ErrMalformed)
			}
			length, err := lengthVal.AsInt()
			if err != nil {
				return fmt.Errorf("%w: file \"length\" is not an integer: %v", ErrMalformed, err)
			}
			pathVal, ok := fd["path"]
			if !ok {
				return fmt.Errorf("%w: file entry missing \"path\"", ErrMalformed)
			}
			pathList, err := pathVal.AsList()
			if err != nil {
				return fmt.Errorf("%w: file \"path\" is not a list: %v", ErrMalformed, err)
			}
			if len(pathList) == 0 {
				return fmt.Errorf("%w: file \"path\" has zero components", ErrMalformed)
			}
			components := make([]string, len(pathList))
			for i, pv := range pathList {
				comp, err := pv.AsString()
				if err != nil {
					return fmt.Errorf("%w: path component is not a string: %v", ErrMalformed, err)
				}
				components[i] = byteutil.ISO88591ToString(comp)
			}
			t.files = append(t.files, File{
				Path:   joinPath(components),
				Length: length,
			})
			total += length
		}
		t.size = total
		return nil
	}

	lengthVal, ok := info["length"]
	if !ok {
		return fmt.Errorf("%w: single-file torrent missing \"info.length\"", ErrMalformed)
	}
	length, err := lengthVal.AsInt()
	if err != nil {
		return fmt.Errorf("%w: \"info.length\" is not an integer: %v", ErrMalformed, err)
	}
	t.multifile = false
	t.files = []File{{Path: t.name, Length: length}}
	t.size = length
	return nil
}

// Load reads path and parses it as a .torrent file.
func Load(path string, seeder bool) (*Torrent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metainfo: load %s: %w", path, err)
	}
	return Parse(data, seeder)
}

// Name returns the torrent's name: the file name for single-file torrents,
// or the top-level directory name for multi-file torrents.
func (t *Torrent) Name() string { return t.name }

// Size returns the total declared size in bytes across all files.
func (t *Torrent) Size() int64 { return t.size }

// InfoHash returns the 20-byte SHA-1 of the torrent's info substructure.
func (t *Torrent) InfoHash() [20]byte { return t.infoHash }

// HexInfoHash returns the uppercase 40-character hex encoding of InfoHash.
func (t *Torrent) HexInfoHash() string { return t.hexHash }

// AnnounceList returns the announce tiers in operator-supplied order.
// Mutating the returned slices does not affect the Torrent.
func (t *Torrent) AnnounceList() [][]*url.URL {
	out := make([][]*url.URL, len(t.announceList))
	for i, tier := range t.announceList {
		out[i] = append([]*url.URL(nil), tier...)
	}
	return out
}

// IsTrackerless reports whether this torrent carries no announce URIs.
func (t *Torrent) IsTrackerless() bool { return len(t.announceList) == 0 }

// Files returns the file list in torrent order. For single-file torrents
// this is a single entry named Name().
func (t *Torrent) Files() []File {
	out := make([]File, len(t.files))
	copy(out, t.files)
	return out
}

// IsMultifile reports whether this torrent describes more than one file.
func (t *Torrent) IsMultifile() bool { return t.multifile }

// IsSeeder reports whether this Torrent was constructed as (or loaded on
// behalf of) an initial seeder, i.e. local data doesn't need validation.
func (t *Torrent) IsSeeder() bool { return t.seeder }

// PieceLength returns the configured piece size in bytes.
func (t *Torrent) PieceLength() int64 { return t.pieceLength }

// Pieces returns the concatenated 20-byte SHA-1 piece digests.
func (t *Torrent) Pieces() []byte { return append([]byte(nil), t.pieces...) }

// Comment returns the optional human-readable comment, or "" if absent.
func (t *Torrent) Comment() string { return t.comment }

// CreatedBy returns the optional creator string, or "" if absent.
func (t *Torrent) CreatedBy() string { return t.createdBy }

// CreationDate returns the optional creation timestamp, or nil if absent.
func (t *Torrent) CreationDate() *time.Time {
	if t.creationDate == nil {
		return nil
	}
	ts := *t.creationDate
	return &ts
}

// Encoded returns the original (or constructed) bencoded metainfo blob.
func (t *Torrent) Encoded() []byte { return append([]byte(nil), t.encoded...) }

// WriteTo writes the encoded metainfo blob to w, satisfying io.WriterTo.
func (t *Torrent) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.encoded)
	return int64(n), err
}
