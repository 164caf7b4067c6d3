// Package hashing implements the parallel SHA-1 piece-hashing pipeline used
// both to create new torrents and to verify on-disk data against an
// existing metainfo's piece list.
//
// A single producer goroutine reads the input files sequentially, filling a
// piece-length buffer; each time the buffer fills, a copy of its contents is
// handed to a worker pool as an independent hashing task and the buffer is
// then reused for continued reading. Workers are pure (bytes in, SHA-1 digest
// out) and run concurrently, but the pipeline always presents digests in
// submission order — never completion order — by collecting one
// result channel per submitted task and draining them in sequence.
package hashing

import (
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
)

// DefaultPieceLength is the piece size (bytes) used when creating new
// torrents: 512 KiB.
const DefaultPieceLength = 512 * 1024

// PieceSize is the length in bytes of a single SHA-1 piece digest.
const PieceSize = sha1.Size

// ThreadsEnvVar overrides the default worker-pool size when set to a
// positive integer.
const ThreadsEnvVar = "TTORRENT_HASHING_THREADS"

var logger = log.New(log.Writer(), "hashing: ", log.LstdFlags)

// Threads returns the number of hashing workers to use: the value of
// TTORRENT_HASHING_THREADS if it parses as a positive integer, otherwise
// the host's reported parallelism.
func Threads() int {
	if v := os.Getenv(ThreadsEnvVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

type pieceJob struct {
	data   []byte
	result chan [PieceSize]byte
}

func worker(jobs <-chan pieceJob) {
	for j := range jobs {
		j.result <- sha1.Sum(j.data)
	}
}

// HashFiles hashes the logical concatenation of the given files' contents,
// in order, using pieceLength-sized windows (the final window may be
// shorter). It returns the concatenation of 20-byte SHA-1 digests, one per
// piece, in file order. If pieceLength is <= 0, DefaultPieceLength is used.
//
// Any I/O error reading an input file aborts the pipeline: in-flight
// workers are allowed to finish (their results are simply discarded), and
// the error is returned without a partial digest string.
func HashFiles(paths []string, pieceLength int64) ([]byte, error) {
	if pieceLength <= 0 {
		pieceLength = DefaultPieceLength
	}

	workers := Threads()
	jobs := make(chan pieceJob, workers)
	for i := 0; i < workers; i++ {
		go worker(jobs)
	}

	var order []chan [PieceSize]byte
	submit := func(piece []byte) {
		result := make(chan [PieceSize]byte, 1)
		order = append(order, result)
		jobs <- pieceJob{data: piece, result: result}
	}

	buf := make([]byte, pieceLength)
	filled := 0

	var pieceCount int
	var totalLength int64

	abort := func(err error) ([]byte, error) {
		close(jobs)
		return nil, err
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return abort(fmt.Errorf("hashing: open %s: %w", path, err))
		}

		if fi, statErr := f.Stat(); statErr == nil {
			totalLength += fi.Size()
		}

		for {
			n, readErr := f.Read(buf[filled:])
			filled += n

			if filled == len(buf) {
				piece := make([]byte, filled)
				copy(piece, buf[:filled])
				submit(piece)
				pieceCount++
				filled = 0
			}

			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				f.Close()
				return abort(fmt.Errorf("hashing: read %s: %w", path, readErr))
			}
		}
		f.Close()
	}

	if filled > 0 {
		piece := make([]byte, filled)
		copy(piece, buf[:filled])
		submit(piece)
		pieceCount++
		filled = 0
	}

	close(jobs)

	digests := make([]byte, 0, len(order)*PieceSize)
	for _, result := range order {
		sum := <-result
		digests = append(digests, sum[:]...)
	}

	logger.Printf("hashed %d piece(s) from %d file(s) (%d bytes total)", pieceCount, len(paths), totalLength)
	return digests, nil
}

// HashFile is a convenience wrapper around HashFiles for a single input
// file.
func HashFile(path string, pieceLength int64) ([]byte, error) {
	return HashFiles([]string{path}, pieceLength)
}

// Verify hashes the logical concatenation of paths and compares the result,
// piece by piece, against expectedPieces (the concatenated 20-byte digests
// from a torrent's metainfo). It returns the indices of the mismatching
// pieces; a nil/empty slice means the on-disk data is intact.
func Verify(paths []string, pieceLength int64, expectedPieces []byte) ([]int, error) {
	actual, err := HashFiles(paths, pieceLength)
	if err != nil {
		return nil, err
	}

	n := len(expectedPieces) / PieceSize
	var bad []int
	for i := 0; i < n; i++ {
		start := i * PieceSize
		end := start + PieceSize
		if end > len(actual) || string(actual[start:end]) != string(expectedPieces[start:end]) {
			bad = append(bad, i)
		}
	}
	logger.Printf("verified %d piece(s), %d mismatch(es)", n, len(bad))
	return bad, nil
}

// PieceCount returns ceil(totalSize / pieceLength), the number of pieces a
// creator-side hash of totalSize bytes must produce.
func PieceCount(totalSize, pieceLength int64) int64 {
	if pieceLength <= 0 {
		pieceLength = DefaultPieceLength
	}
	if totalSize == 0 {
		return 0
	}
	return (totalSize + pieceLength - 1) / pieceLength
}
