package trackersrv

import (
	"ttorrent-go/bencode"
	"ttorrent-go/internal/tracker"
)

func encodeFailure(reason string) []byte {
	return bencode.Encode(bencode.NewDict(map[string]bencode.Value{
		"failure reason": bencode.NewString([]byte(reason)),
	}))
}

func encodeAnnounceResponse(tt *tracker.TrackedTorrent, peers []tracker.Peer, interval int, compact bool) []byte {
	dict := map[string]bencode.Value{
		"interval":   bencode.NewInt(int64(interval)),
		"complete":   bencode.NewInt(int64(tt.Seeders())),
		"incomplete": bencode.NewInt(int64(tt.Leechers())),
	}
	if compact {
		dict["peers"] = bencode.NewString(encodeCompactPeers(peers))
	} else {
		dict["peers"] = bencode.NewList(encodeDictPeers(peers))
	}
	return bencode.Encode(bencode.NewDict(dict))
}

// encodeCompactPeers packs each peer as 4 bytes of IPv4 address followed by
// 2 bytes of big-endian port. Peers without an IPv4 address are omitted —
// the compact form has no room for IPv6.
func encodeCompactPeers(peers []tracker.Peer) []byte {
	out := make([]byte, 0, len(peers)*6)
	for _, p := range peers {
		v4 := p.IP.To4()
		if v4 == nil {
			continue
		}
		out = append(out, v4...)
		out = append(out, byte(p.Port>>8), byte(p.Port))
	}
	return out
}

func encodeDictPeers(peers []tracker.Peer) []bencode.Value {
	out := make([]bencode.Value, 0, len(peers))
	for _, p := range peers {
		out = append(out, bencode.NewDict(map[string]bencode.Value{
			"peer id": bencode.NewString(p.ID[:]),
			"ip":      bencode.NewString([]byte(p.IP.String())),
			"port":    bencode.NewInt(int64(p.Port)),
		}))
	}
	return out
}
