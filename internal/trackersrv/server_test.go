package trackersrv_test

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"ttorrent-go/bencode"
	"ttorrent-go/internal/trackersrv"
	"ttorrent-go/metainfo"
)

func newTestTracker(t *testing.T) (*trackersrv.Tracker, string) {
	t.Helper()
	tr := trackersrv.NewTracker(trackersrv.Config{
		Addr:             "127.0.0.1:0",
		AnnounceInterval: time.Second,
	})
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { tr.Stop() })
	return tr, "http://" + tr.Addr().String()
}

func announce(t *testing.T, base string, params map[string]string) bencode.Value {
	t.Helper()
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	resp, err := http.Get(base + "/announce?" + q.Encode())
	if err != nil {
		t.Fatalf("GET /announce: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	v, _, err := bencode.DecodeLenient(body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func baseParams(infoHash, peerID string, port int, left int) map[string]string {
	return map[string]string{
		"info_hash":  infoHash,
		"peer_id":    peerID,
		"port":       fmt.Sprintf("%d", port),
		"uploaded":   "0",
		"downloaded": "0",
		"left":       fmt.Sprintf("%d", left),
		"ip":         "10.0.0.1",
	}
}

func admitTestTorrent(t *testing.T, tr *trackersrv.Tracker) *metainfo.Torrent {
	t.Helper()
	blob := []byte("d8:announce27:http://example.com/announce4:infod6:lengthi5e4:name5:helloee")
	torrent, err := metainfo.Parse(blob, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr.Admit(torrent)
	return torrent
}

func TestAnnounceSeederThenLeecherDiscovery(t *testing.T) {
	tr, base := newTestTracker(t)
	torrent := admitTestTorrent(t, tr)
	hash := torrent.InfoHash()
	infoHash := string(hash[:])

	seeder := announce(t, base, baseParams(infoHash, "11111111111111111111", 6881, 0))
	dict, err := seeder.AsDict()
	if err != nil {
		t.Fatalf("seeder response not a dict: %v", err)
	}
	if complete, _ := dict["complete"].AsInt(); complete != 1 {
		t.Errorf("complete = %d, want 1", complete)
	}
	if incomplete, _ := dict["incomplete"].AsInt(); incomplete != 0 {
		t.Errorf("incomplete = %d, want 0", incomplete)
	}
	peers, _ := dict["peers"].AsString()
	if len(peers) != 0 {
		t.Errorf("seeder should see no peers, got %d bytes", len(peers))
	}

	leecher := announce(t, base, baseParams(infoHash, "22222222222222222222", 6882, 1000))
	ldict, err := leecher.AsDict()
	if err != nil {
		t.Fatalf("leecher response not a dict: %v", err)
	}
	if complete, _ := ldict["complete"].AsInt(); complete != 1 {
		t.Errorf("complete = %d, want 1", complete)
	}
	if incomplete, _ := ldict["incomplete"].AsInt(); incomplete != 1 {
		t.Errorf("incomplete = %d, want 1", incomplete)
	}
	lpeers, _ := ldict["peers"].AsString()
	if len(lpeers) != 6 {
		t.Fatalf("leecher should see exactly one compact peer (6 bytes), got %d", len(lpeers))
	}
	if lpeers[0] != 10 || lpeers[1] != 0 || lpeers[2] != 0 || lpeers[3] != 1 {
		t.Errorf("compact peer ip = %v, want 10.0.0.1", lpeers[:4])
	}
}

func TestAnnounceStoppedRemovesPeer(t *testing.T) {
	tr, base := newTestTracker(t)
	torrent := admitTestTorrent(t, tr)
	hash := torrent.InfoHash()
	infoHash := string(hash[:])

	p := baseParams(infoHash, "33333333333333333333", 6883, 0)
	announce(t, base, p)

	stopParams := baseParams(infoHash, "33333333333333333333", 6883, 0)
	stopParams["event"] = "stopped"
	announce(t, base, stopParams)

	other := announce(t, base, baseParams(infoHash, "44444444444444444444", 6884, 1))
	dict, _ := other.AsDict()
	if complete, _ := dict["complete"].AsInt(); complete != 0 {
		t.Errorf("complete after stop = %d, want 0", complete)
	}
}

func TestAnnounceNumwantZeroReturnsNoPeers(t *testing.T) {
	tr, base := newTestTracker(t)
	torrent := admitTestTorrent(t, tr)
	hash := torrent.InfoHash()
	infoHash := string(hash[:])

	announce(t, base, baseParams(infoHash, "66666666666666666666", 6886, 0))

	p := baseParams(infoHash, "77777777777777777777", 6887, 1000)
	p["numwant"] = "0"
	resp := announce(t, base, p)
	dict, err := resp.AsDict()
	if err != nil {
		t.Fatalf("response not a dict: %v", err)
	}
	if complete, _ := dict["complete"].AsInt(); complete != 1 {
		t.Errorf("complete = %d, want 1", complete)
	}
	peers, _ := dict["peers"].AsString()
	if len(peers) != 0 {
		t.Errorf("numwant=0 should return no peers, got %d bytes", len(peers))
	}
}

func TestAnnounceUnknownTorrentReturnsFailureReason(t *testing.T) {
	tr, base := newTestTracker(t)
	_ = admitTestTorrent(t, tr)

	unknownHash := strings.Repeat("\x00", 20)
	resp := announce(t, base, baseParams(unknownHash, "55555555555555555555", 6885, 0))
	dict, err := resp.AsDict()
	if err != nil {
		t.Fatalf("response not a dict: %v", err)
	}
	if _, ok := dict["failure reason"]; !ok {
		t.Fatalf("expected a failure reason field, got %+v", dict)
	}
}
