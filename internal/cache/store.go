// Package cache keeps transcoded streams on disk, zstd compressed, so
// replaying a file skips ffmpeg.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
	"github.com/zsiec/termreel/internal/metrics"
)

// Key identifies one transcode of one input file at one output geometry.
type Key string

// KeyFor derives the key for input scaled to columns x rows at fps. The
// file's absolute path, size and modification time are part of the key, so
// editing the file invalidates its entries.
func KeyFor(input string, columns, rows, fps int) (Key, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", errors.WrapCacheError(err, "failed to resolve input path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.WrapCacheError(err, "failed to stat input")
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%d\x00%d\x00%d",
		abs, info.Size(), info.ModTime().UnixNano(), columns, rows, fps)
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

// ParseLevel maps a configured level name to a zstd encoder level.
func ParseLevel(name string) (zstd.EncoderLevel, error) {
	switch name {
	case "fastest":
		return zstd.SpeedFastest, nil
	case "", "default":
		return zstd.SpeedDefault, nil
	case "better":
		return zstd.SpeedBetterCompression, nil
	case "best":
		return zstd.SpeedBestCompression, nil
	}
	return zstd.SpeedDefault, fmt.Errorf("unknown compression level %q", name)
}

// Entry is a cached pair of streams.
type Entry struct {
	Frames []byte
	Audio  []byte
}

// Store reads and writes entries under one directory.
type Store struct {
	dir   string
	level zstd.EncoderLevel
	log   logger.Logger
}

// New creates the cache directory if needed.
func New(dir, level string, log logger.Logger) (*Store, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, errors.NewConfigError(err.Error())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapCacheError(err, "failed to create cache directory")
	}
	return &Store{
		dir:   dir,
		level: lvl,
		log:   logger.WithComponent(log, "cache"),
	}, nil
}

// Path returns the file holding stream ("frames" or "audio") for key.
func (s *Store) Path(key Key, stream string) string {
	return filepath.Join(s.dir, string(key)+"."+stream+".zst")
}

// Load returns the entry for key. A missing entry is (nil, nil).
func (s *Store) Load(key Key) (*Entry, error) {
	frames, err := s.read(s.Path(key, "frames"))
	if stderrors.Is(err, fs.ErrNotExist) {
		metrics.RecordCacheLookup("miss")
		s.log.WithField("key", key).Debug("Cache miss")
		return nil, nil
	}
	if err != nil {
		metrics.RecordCacheLookup("error")
		return nil, errors.WrapCacheError(err, "failed to read cached frames")
	}

	audio, err := s.read(s.Path(key, "audio"))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		metrics.RecordCacheLookup("error")
		return nil, errors.WrapCacheError(err, "failed to read cached audio")
	}

	metrics.RecordCacheLookup("hit")
	s.log.WithFields(logger.Fields{
		"key":         key,
		"frame_bytes": len(frames),
		"audio_bytes": len(audio),
	}).Debug("Cache hit")
	return &Entry{Frames: frames, Audio: audio}, nil
}

// Save stores entry under key. Audio is written first so a reader that
// finds the frames file always finds a complete entry.
func (s *Store) Save(key Key, entry *Entry) error {
	if len(entry.Audio) > 0 {
		if err := s.write(s.Path(key, "audio"), entry.Audio); err != nil {
			return errors.WrapCacheError(err, "failed to write cached audio")
		}
	}
	if err := s.write(s.Path(key, "frames"), entry.Frames); err != nil {
		return errors.WrapCacheError(err, "failed to write cached frames")
	}
	s.log.WithField("key", key).Debug("Cache entry saved")
	return nil
}

func (s *Store) read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}

// write compresses data into a temporary file and renames it into place.
func (s *Store) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp,
		zstd.WithEncoderLevel(s.level),
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		tmp.Close()
		return err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
