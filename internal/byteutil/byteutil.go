// Package byteutil provides the small set of byte-level conversions the
// metainfo and tracker packages need: SHA-1 hashing, uppercase hex encoding,
// and ISO-8859-1 text/byte conversion for human-facing fields such as
// comment or created-by strings.
package byteutil

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// SHA1 returns the 20-byte SHA-1 digest of data.
func SHA1(data []byte) [20]byte {
	return sha1.Sum(data)
}

// HexUpper renders data as uppercase hexadecimal, matching the
// 40-char-uppercase info-hash convention used by ttorrent and most
// BitTorrent tooling.
func HexUpper(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// HexLower renders data as lowercase hexadecimal, the form used as map keys
// throughout the tracker registry.
func HexLower(data []byte) string {
	return hex.EncodeToString(data)
}

// ISO88591ToString interprets raw bytes as ISO-8859-1 (Latin-1), where each
// byte maps directly to the Unicode code point of the same value. This is
// the byte encoding BitTorrent metainfo text fields use on the wire.
func ISO88591ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// StringToISO88591 converts a Go string back to ISO-8859-1 bytes. Code
// points beyond U+00FF are not representable and are replaced with '?'.
func StringToISO88591(s string) []byte {
	runes := []rune(s)
	out := make([]byte, len(runes))
	for i, r := range runes {
		if r > 0xFF {
			out[i] = '?'
			continue
		}
		out[i] = byte(r)
	}
	return out
}
