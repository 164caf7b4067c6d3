package metainfo_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"ttorrent-go/metainfo"
)

// TestParseKnownBlobProducesExpectedInfoHash pins down the info-hash
// stability property (spec §8): parse(bytes).info_hash ==
// SHA1(bytes_of_info_substructure(bytes)), verified against an
// independently hashed fixture blob.
func TestParseKnownBlobProducesExpectedInfoHash(t *testing.T) {
	blob := []byte("d8:announce27:http://example.com/announce10:created by4:test4:infod6:lengthi5e4:name5:helloee")
	const wantHash = "1BAF4B0AF50F58EDECD9FF4E0009A713D74C4BD1"

	tr, err := metainfo.Parse(blob, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tr.HexInfoHash() != wantHash {
		t.Errorf("HexInfoHash() = %s, want %s", tr.HexInfoHash(), wantHash)
	}
	if tr.CreatedBy() != "test" {
		t.Errorf("CreatedBy() = %q, want %q", tr.CreatedBy(), "test")
	}
	if tr.Name() != "hello" {
		t.Errorf("Name() = %q, want %q", tr.Name(), "hello")
	}
	if tr.Size() != 5 {
		t.Errorf("Size() = %d, want 5", tr.Size())
	}
	if tr.IsMultifile() {
		t.Error("expected single-file torrent")
	}
	tiers := tr.AnnounceList()
	if len(tiers) != 1 || len(tiers[0]) != 1 || tiers[0][0].String() != "http://example.com/announce" {
		t.Errorf("AnnounceList() = %v, want one tier with the fixture URI", tiers)
	}
}

// TestCreateSingleFile mirrors the "create-single-file" end-to-end
// scenario from spec §8: a 1,234,567-byte file of pseudo-random bytes
// (seed 0) produces a torrent whose info.length, piece length and pieces
// size exactly match the expected values.
func TestCreateSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")

	data := make([]byte, 1234567)
	rand.New(rand.NewSource(0)).Read(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tr, err := metainfo.Create(path, nil, "http://localhost:6969/announce", nil, "Test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if tr.Size() != 1234567 {
		t.Errorf("Size() = %d, want 1234567", tr.Size())
	}
	if tr.PieceLength() != 524288 {
		t.Errorf("PieceLength() = %d, want 524288", tr.PieceLength())
	}
	wantPiecesLen := 60 // ceil(1234567/524288)*20
	if len(tr.Pieces()) != wantPiecesLen {
		t.Errorf("len(Pieces()) = %d, want %d", len(tr.Pieces()), wantPiecesLen)
	}
	if tr.IsTrackerless() {
		t.Error("expected an announce URI to be present")
	}
	tiers := tr.AnnounceList()
	if len(tiers) != 1 || tiers[0][0].String() != "http://localhost:6969/announce" {
		t.Errorf("AnnounceList() = %v", tiers)
	}
	if tr.CreatedBy() != "Test" {
		t.Errorf("CreatedBy() = %q, want Test", tr.CreatedBy())
	}
	if !tr.IsSeeder() {
		t.Error("Create should produce a seeder-mode torrent")
	}
}

func TestCreateMultiFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "one.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "two.txt"), []byte("more data here"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := metainfo.Create(dir, []string{"one.txt", "a/two.txt"}, "", [][]string{{"http://t1/announce", "http://t2/announce"}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !tr.IsMultifile() {
		t.Error("expected multi-file torrent")
	}
	files := tr.Files()
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	wantSize := int64(len("hello world") + len("more data here"))
	if tr.Size() != wantSize {
		t.Errorf("Size() = %d, want %d", tr.Size(), wantSize)
	}
	tiers := tr.AnnounceList()
	if len(tiers) != 1 || len(tiers[0]) != 2 {
		t.Fatalf("AnnounceList() = %v, want one tier with two trackers", tiers)
	}
}

func TestCreateRejectsUnsupportedURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := metainfo.Create(path, nil, "not-a-uri", nil, "")
	if err == nil {
		t.Fatal("expected an error for an invalid announce URI")
	}
}

func TestCreateTrackerless(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := metainfo.Create(path, nil, "", nil, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !tr.IsTrackerless() {
		t.Error("expected a trackerless torrent")
	}
}

// TestRoundTripPreservesInfoHash exercises the Encode -> Parse loop: a
// torrent written out and re-parsed must keep the same info-hash.
func TestRoundTripPreservesInfoHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("some payload bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := metainfo.Create(path, nil, "http://localhost:6969/announce", nil, "Test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reparsed, err := metainfo.Parse(tr.Encoded(), true)
	if err != nil {
		t.Fatalf("Parse(Encoded()): %v", err)
	}
	if reparsed.HexInfoHash() != tr.HexInfoHash() {
		t.Errorf("info-hash changed across round trip: %s != %s", reparsed.HexInfoHash(), tr.HexInfoHash())
	}
}
