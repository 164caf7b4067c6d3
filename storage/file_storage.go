package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// PartialSuffix is appended to a torrent's target file name while a
// download is in progress; Finish renames the partial file onto the
// target once the download completes.
const PartialSuffix = ".!pc"

var logger = log.New(log.Writer(), "storage: ", log.LstdFlags)

// FileStorage is a single-file implementation of Storage backed by an
// os.File. Until Finish is called, data is written to "<target>.!pc";
// Finish deletes any stale target and renames the partial file onto it.
type FileStorage struct {
	mu sync.Mutex

	target     string
	partial    string
	baseOffset int64
	size       int64

	current string
	file    *os.File
}

// NewFileStorage opens (creating if necessary) byte storage for target,
// sized to size bytes. If a partial download already exists at
// target+PartialSuffix, it is resumed; otherwise the target itself is used
// if it already exists, or a fresh partial file is started. An existing
// file's contents are not checked; whichever file is opened is truncated or
// extended to size bytes.
func NewFileStorage(target string, size int64) (*FileStorage, error) {
	return NewFileStorageAt(target, 0, size)
}

// NewFileStorageAt is NewFileStorage with an explicit base offset, used
// when several FileStorage instances address different regions of a
// logically larger multi-file torrent.
func NewFileStorageAt(target string, baseOffset, size int64) (*FileStorage, error) {
	fs := &FileStorage{
		target:     target,
		partial:    target + PartialSuffix,
		baseOffset: baseOffset,
		size:       size,
	}

	current := target
	switch {
	case fileExists(fs.partial):
		logger.Printf("resuming partial download at %s", fs.partial)
		current = fs.partial
	case !fileExists(target):
		logger.Printf("starting new download at %s", fs.partial)
		current = fs.partial
	default:
		logger.Printf("using existing file %s", target)
	}

	f, err := os.OpenFile(current, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", current, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: truncate %s: %w", current, err)
	}

	fs.current = current
	fs.file = f
	return fs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (fs *FileStorage) Size() int64 { return fs.size }

// BaseOffset returns the base offset this storage was constructed with.
func (fs *FileStorage) BaseOffset() int64 { return fs.baseOffset }

func (fs *FileStorage) Read(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset+int64(len(buf)) > fs.size {
		return 0, ErrInvalidRange
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("storage: read: %w", err)
	}
	if n < len(buf) {
		return n, ErrUnderrun
	}
	return n, nil
}

func (fs *FileStorage) Write(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset+int64(len(buf)) > fs.size {
		return 0, ErrInvalidRange
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.file.WriteAt(buf, offset)
	if err != nil {
		return n, fmt.Errorf("storage: write: %w", err)
	}
	return n, nil
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	logger.Printf("closing %s", fs.current)
	if err := fs.file.Sync(); err != nil {
		return fmt.Errorf("storage: sync: %w", err)
	}
	return fs.file.Close()
}

// Finish moves the partial file to its final target location, replacing
// any stale target via delete-then-rename. A no-op if already finished.
func (fs *FileStorage) Finish() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.current == fs.target {
		return nil
	}

	if err := fs.file.Sync(); err != nil {
		return fmt.Errorf("storage: sync: %w", err)
	}
	if err := fs.file.Close(); err != nil {
		return fmt.Errorf("storage: close before finish: %w", err)
	}

	os.Remove(fs.target)
	if err := os.Rename(fs.current, fs.target); err != nil {
		return fmt.Errorf("storage: rename %s to %s: %w", fs.current, fs.target, err)
	}

	f, err := os.OpenFile(fs.target, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("storage: reopen %s: %w", fs.target, err)
	}
	if err := f.Truncate(fs.size); err != nil {
		f.Close()
		return fmt.Errorf("storage: truncate %s: %w", fs.target, err)
	}

	fs.file = f
	fs.current = fs.target
	logger.Printf("moved torrent data to %s", fs.target)
	return nil
}

func (fs *FileStorage) IsFinished() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.current == fs.target
}
