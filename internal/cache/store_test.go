package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestKeyFor(t *testing.T) {
	input := writeInput(t, "movie")

	k1, err := KeyFor(input, 80, 24, 25)
	require.NoError(t, err)
	assert.Len(t, string(k1), 64)

	k2, err := KeyFor(input, 80, 24, 25)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	for _, other := range [][3]int{{81, 24, 25}, {80, 25, 25}, {80, 24, 30}} {
		k, err := KeyFor(input, other[0], other[1], other[2])
		require.NoError(t, err)
		assert.NotEqual(t, k1, k, "geometry %v", other)
	}

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(input, later, later))
	k3, err := KeyFor(input, 80, 24, 25)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "modification time is part of the key")

	_, err = KeyFor(filepath.Join(t.TempDir(), "missing"), 80, 24, 25)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCache))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zstd.EncoderLevel{
		"fastest": zstd.SpeedFastest,
		"default": zstd.SpeedDefault,
		"":        zstd.SpeedDefault,
		"better":  zstd.SpeedBetterCompression,
		"best":    zstd.SpeedBestCompression,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("ultra")
	assert.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	for _, level := range []string{"fastest", "best"} {
		t.Run(level, func(t *testing.T) {
			store, err := New(t.TempDir(), level, logger.Discard())
			require.NoError(t, err)

			frames := bytes.Repeat([]byte("BM\x36\x00\x00\x00"), 4096)
			entry := &Entry{Frames: frames, Audio: []byte("ID3\x04")}
			require.NoError(t, store.Save("abc", entry))

			info, err := os.Stat(store.Path("abc", "frames"))
			require.NoError(t, err)
			assert.Less(t, info.Size(), int64(len(frames)), "frames are compressed")

			got, err := store.Load("abc")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, frames, got.Frames)
			assert.Equal(t, entry.Audio, got.Audio)
		})
	}
}

func TestStoreWithoutAudio(t *testing.T) {
	store, err := New(t.TempDir(), "default", logger.Discard())
	require.NoError(t, err)

	require.NoError(t, store.Save("silent", &Entry{Frames: []byte("frames")}))
	_, err = os.Stat(store.Path("silent", "audio"))
	assert.True(t, os.IsNotExist(err))

	got, err := store.Load("silent")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("frames"), got.Frames)
	assert.Empty(t, got.Audio)
}

func TestStoreMiss(t *testing.T) {
	store, err := New(t.TempDir(), "default", logger.Discard())
	require.NoError(t, err)

	got, err := store.Load("nothing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreCorruptEntry(t *testing.T) {
	store, err := New(t.TempDir(), "default", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path("bad", "frames"), []byte("not zstd"), 0o644))

	_, err = store.Load("bad")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCache))
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "default", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, store.Save("k", &Entry{Frames: []byte("f"), Audio: []byte("a")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"k.frames.zst", "k.audio.zst"}, names)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(t.TempDir(), "ultra", logger.Discard())
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
