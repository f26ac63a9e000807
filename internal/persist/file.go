package persist

import (
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

const (
	recExt = ".rec"
	gzExt  = ".rec.gz"
	tmpExt = ".tmp"

	// Upper bound for a single frame; headers promising more are corrupt.
	maxFrameBytes = 64 << 20
)

// FileAdapter - one framed file per record in a flat directory. File names
// are the xxh3-128 of the key, frames carry the key and a crc so any file
// can be verified and re-indexed on its own. Writes go through a tmp file
// and a rename, so readers never observe a half-written record.
type FileAdapter struct {
	dir  string
	gzip bool
}

func NewFileAdapter(dir string, gzipEnabled bool) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &FileAdapter{dir: dir, gzip: gzipEnabled}, nil
}

func (f *FileAdapter) Get(_ context.Context, key string) ([]byte, error) {
	path, ok := f.locate(key)
	if !ok {
		return nil, ErrNotFound
	}
	storedKey, data, err := readFrame(path)
	if err != nil {
		return nil, err
	}
	if storedKey != key {
		// Hash collision: the file belongs to another key.
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *FileAdapter) Set(_ context.Context, key string, data []byte) error {
	primary, alternate := f.paths(key)
	tmp := primary + tmpExt

	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}
	if err = writeFrame(file, f.gzip, key, data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write record file: %w", err)
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close record file: %w", err)
	}
	if err = os.Rename(tmp, primary); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish record file: %w", err)
	}
	// A leftover from a run with the other compression setting would shadow
	// this write in Keys.
	_ = os.Remove(alternate)
	return nil
}

func (f *FileAdapter) Remove(_ context.Context, key string) error {
	primary, alternate := f.paths(key)
	for _, path := range []string{primary, alternate} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove record file: %w", err)
		}
	}
	return nil
}

func (f *FileAdapter) Clear(_ context.Context) error {
	start := time.Now()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read record dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}
		if err = os.Remove(filepath.Join(f.dir, entry.Name())); err == nil {
			removed++
		}
	}

	log.Info().
		Int("removed", removed).
		Str("elapsed", time.Since(start).String()).
		Msg("cleared record files")

	return nil
}

func (f *FileAdapter) Keys(_ context.Context) ([]string, error) {
	start := time.Now()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read record dir: %w", err)
	}

	var keys []string
	fails := 0
	for _, entry := range entries {
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}
		storedKey, _, err := readFrame(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			fails++
			continue
		}
		keys = append(keys, storedKey)
	}

	log.Info().
		Int("scanned", len(keys)).
		Int("fails", fails).
		Str("elapsed", time.Since(start).String()).
		Msg("scanned record files")

	return keys, nil
}

/**
 * Private API.
 */

func (f *FileAdapter) paths(key string) (primary, alternate string) {
	h := xxh3.HashString128(key)
	base := filepath.Join(f.dir, fmt.Sprintf("%016x%016x", h.Hi, h.Lo))
	if f.gzip {
		return base + gzExt, base + recExt
	}
	return base + recExt, base + gzExt
}

func (f *FileAdapter) locate(key string) (string, bool) {
	primary, alternate := f.paths(key)
	for _, path := range []string{primary, alternate} {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func isRecordFile(name string) bool {
	return strings.HasSuffix(name, recExt) || strings.HasSuffix(name, gzExt)
}

// writeFrame lays out [keyLen u32][dataLen u32][crc u32][key][data], all
// little-endian, optionally behind gzip.
func writeFrame(file *os.File, gzipEnabled bool, key string, data []byte) error {
	var w io.Writer = file
	var gw *gzip.Writer
	if gzipEnabled {
		gw = gzip.NewWriter(file)
		w = gw
	}

	var meta [12]byte
	binary.LittleEndian.PutUint32(meta[0:4], uint32(len(key)))
	binary.LittleEndian.PutUint32(meta[4:8], uint32(len(data)))
	binary.LittleEndian.PutUint32(meta[8:12], crc32.ChecksumIEEE(data))

	for _, chunk := range [][]byte{meta[:], []byte(key), data} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	if gw != nil {
		return gw.Close()
	}
	return nil
}

func readFrame(path string) (key string, data []byte, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open record file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return "", nil, fmt.Errorf("open gzip record: %w", err)
		}
		defer func() { _ = gzr.Close() }()
		r = gzr
	}

	var meta [12]byte
	if _, err = io.ReadFull(r, meta[:]); err != nil {
		return "", nil, fmt.Errorf("read frame meta: %w", err)
	}
	keyLen := binary.LittleEndian.Uint32(meta[0:4])
	dataLen := binary.LittleEndian.Uint32(meta[4:8])
	expCRC := binary.LittleEndian.Uint32(meta[8:12])
	if uint64(keyLen)+uint64(dataLen) > maxFrameBytes {
		return "", nil, fmt.Errorf("frame header promises %d bytes, file is corrupt", uint64(keyLen)+uint64(dataLen))
	}

	keyBuf := make([]byte, keyLen)
	if _, err = io.ReadFull(r, keyBuf); err != nil {
		return "", nil, fmt.Errorf("read frame key: %w", err)
	}
	data = make([]byte, dataLen)
	if _, err = io.ReadFull(r, data); err != nil {
		return "", nil, fmt.Errorf("read frame data: %w", err)
	}
	if crc32.ChecksumIEEE(data) != expCRC {
		return "", nil, fmt.Errorf("crc mismatch in %s", filepath.Base(path))
	}
	return string(keyBuf), data, nil
}
