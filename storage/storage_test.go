package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"ttorrent-go/storage"
)

func TestFileStorageWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "payload.bin")

	fs, err := storage.NewFileStorage(target, 16)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	data := []byte("0123456789abcdef")
	if _, err := fs.Write(data, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, 16)
	if _, err := fs.Read(got, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Read = %q, want %q", got, data)
	}

	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(target + storage.PartialSuffix); err != nil {
		t.Errorf("expected partial file to exist before Finish: %v", err)
	}
}

func TestFileStorageRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "payload.bin")

	fs, err := storage.NewFileStorage(target, 8)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	defer fs.Close()

	if _, err := fs.Write(make([]byte, 9), 0); err == nil {
		t.Error("expected an error writing past the declared size")
	}
	if _, err := fs.Read(make([]byte, 4), 6); err == nil {
		t.Error("expected an error reading past the declared size")
	}
}

func TestFileStorageFinishPromotesPartialFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "payload.bin")

	fs, err := storage.NewFileStorage(target, 4)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if _, err := fs.Write([]byte("data"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if fs.IsFinished() {
		t.Fatal("should not be finished before Finish is called")
	}
	if err := fs.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !fs.IsFinished() {
		t.Error("expected IsFinished after Finish")
	}

	if _, err := os.Stat(target); err != nil {
		t.Errorf("expected target file to exist: %v", err)
	}
	if _, err := os.Stat(target + storage.PartialSuffix); !os.IsNotExist(err) {
		t.Errorf("expected partial file to be gone, stat err = %v", err)
	}

	// Finish is idempotent.
	if err := fs.Finish(); err != nil {
		t.Errorf("second Finish: %v", err)
	}
	fs.Close()
}
