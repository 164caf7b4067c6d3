package metainfo

import "errors"

// ErrMalformed wraps schema-level violations: bencode decoded fine but the
// resulting structure doesn't satisfy the torrent metainfo schema (missing
// "info", "name", "length"/"files", etc).
var ErrMalformed = errors.New("metainfo: malformed torrent")

// ErrUnsupportedURI wraps a failure to strictly parse an announce URI found
// in "announce" or "announce-list". A single bad URI fails the whole parse
// or construction.
var ErrUnsupportedURI = errors.New("metainfo: unsupported announce URI")
