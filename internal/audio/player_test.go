package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/termreel/internal/logger"
)

func fakeFFplay(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "ffplay")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestStartFeedsStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "received")
	t.Setenv("FAKE_OUT", out)
	path := fakeFFplay(t, `exec cat > "$FAKE_OUT"`)

	p, err := Start(context.Background(), path, []byte("ID3 soundtrack"), logger.Discard())
	require.NoError(t, err)
	require.NotNil(t, p)

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("ffplay did not exit at end of input")
	}
	assert.NoError(t, p.Err())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ID3 soundtrack", string(got))

	p.Stop()
}

func TestStopKillsPlayer(t *testing.T) {
	path := fakeFFplay(t, "exec sleep 10")

	p, err := Start(context.Background(), path, []byte("data"), logger.Discard())
	require.NoError(t, err)
	assert.NoError(t, p.Err(), "no error while running")

	start := time.Now()
	p.Stop()
	p.Stop()
	assert.Less(t, time.Since(start), 3*time.Second)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestCancelStopsPlayer(t *testing.T) {
	path := fakeFFplay(t, "exec sleep 10")
	ctx, cancel := context.WithCancel(context.Background())

	p, err := Start(ctx, path, []byte("data"), logger.Discard())
	require.NoError(t, err)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("player kept running after cancel")
	}
	p.Stop()
}

func TestStartWithoutData(t *testing.T) {
	p, err := Start(context.Background(), "/nonexistent/ffplay", nil, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, p)

	p.Stop()
	assert.NoError(t, p.Err())
	<-p.Done()
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(context.Background(), "/nonexistent/ffplay", []byte("x"), logger.Discard())
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}, Args)
}
