package trackersrv

import (
	"net"
	"net/http"
	"strconv"

	"ttorrent-go/internal/tracker"
)

// announceRequest is the parsed form of a GET /announce query string. Every
// field is extracted from the raw percent-decoded bytes net/url already
// hands back through url.Values (a Go string is just a byte sequence, so no
// extra UTF-8 interpretation happens here) — peer_id and info_hash in
// particular are never treated as text.
type announceRequest struct {
	infoHash   string // raw 20 bytes
	peerID     tracker.PeerID
	ip         net.IP
	port       uint16
	uploaded   uint64
	downloaded uint64
	left       uint64
	event      tracker.Event
	numwant    int
	compact    bool
}

const defaultNumwant = 50

func parseAnnounceRequest(r *http.Request) (*announceRequest, *AnnounceError) {
	q := r.URL.Query()

	infoHash := q.Get("info_hash")
	if len(infoHash) != 20 {
		return nil, missingParameter("info_hash")
	}

	rawPeerID := q.Get("peer_id")
	if len(rawPeerID) != 20 {
		return nil, missingParameter("peer_id")
	}
	var peerID tracker.PeerID
	copy(peerID[:], rawPeerID)

	port, err := strconv.ParseUint(q.Get("port"), 10, 16)
	if err != nil || port < 1 {
		return nil, missingParameter("port")
	}

	uploaded, err := parseNonNegative(q.Get("uploaded"))
	if err != nil {
		return nil, missingParameter("uploaded")
	}
	downloaded, err := parseNonNegative(q.Get("downloaded"))
	if err != nil {
		return nil, missingParameter("downloaded")
	}
	left, err := parseNonNegative(q.Get("left"))
	if err != nil {
		return nil, missingParameter("left")
	}

	ip, aerr := resolvePeerIP(r, q.Get("ip"))
	if aerr != nil {
		return nil, aerr
	}

	event, aerr := parseEvent(q.Get("event"))
	if aerr != nil {
		return nil, aerr
	}

	// defaultNumwant only applies when the parameter is absent; an explicit
	// "numwant=0" is a valid request for zero peers back and must survive
	// as 0, not be coerced to the default.
	numwant := defaultNumwant
	if raw := q.Get("numwant"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, missingParameter("numwant")
		}
		numwant = n
	}

	compact := true
	if raw := q.Get("compact"); raw != "" {
		compact = raw != "0"
	}

	return &announceRequest{
		infoHash:   infoHash,
		peerID:     peerID,
		ip:         ip,
		port:       uint16(port),
		uploaded:   uploaded,
		downloaded: downloaded,
		left:       left,
		event:      event,
		numwant:    numwant,
		compact:    compact,
	}, nil
}

func parseNonNegative(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

func resolvePeerIP(r *http.Request, raw string) (net.IP, *AnnounceError) {
	if raw == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, invalidPeer("could not determine peer address")
		}
		return ip, nil
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil, invalidPeer("invalid ip parameter")
	}
	return ip, nil
}

func parseEvent(raw string) (tracker.Event, *AnnounceError) {
	switch raw {
	case "":
		return tracker.EventNone, nil
	case "started":
		return tracker.EventStarted, nil
	case "stopped":
		return tracker.EventStopped, nil
	case "completed":
		return tracker.EventCompleted, nil
	default:
		return tracker.EventNone, invalidEvent(raw)
	}
}
