package trackersrv

import "fmt"

// AnnounceErrorKind enumerates the protocol-level announce failures defined
// by the wire contract. Every one of them is reported to the client as a
// bencoded "failure reason", never as an HTTP 4xx/5xx.
type AnnounceErrorKind int

const (
	UnknownTorrent AnnounceErrorKind = iota
	InvalidEvent
	MissingParameter
	InvalidPeer
)

func (k AnnounceErrorKind) String() string {
	switch k {
	case UnknownTorrent:
		return "UnknownTorrent"
	case InvalidEvent:
		return "InvalidEvent"
	case MissingParameter:
		return "MissingParameter"
	case InvalidPeer:
		return "InvalidPeer"
	default:
		return "Unknown"
	}
}

// AnnounceError is the only error type the announce handler produces; its
// Reason is exactly what goes into the bencoded "failure reason" field.
type AnnounceError struct {
	Kind   AnnounceErrorKind
	Reason string
}

func (e *AnnounceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func missingParameter(name string) *AnnounceError {
	return &AnnounceError{Kind: MissingParameter, Reason: fmt.Sprintf("missing or malformed parameter %q", name)}
}

func invalidPeer(reason string) *AnnounceError {
	return &AnnounceError{Kind: InvalidPeer, Reason: reason}
}

func invalidEvent(raw string) *AnnounceError {
	return &AnnounceError{Kind: InvalidEvent, Reason: fmt.Sprintf("unrecognized event %q", raw)}
}

func unknownTorrent(hexInfoHash string) *AnnounceError {
	return &AnnounceError{Kind: UnknownTorrent, Reason: fmt.Sprintf("unknown torrent %s", hexInfoHash)}
}
