package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encoderListing = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D bmp                  BMP (Windows and OS/2 bitmap)
 V....D png                  PNG (Portable Network Graphics) image
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3) (codec mp3)
`

// fakeTool writes a shell script that answers -version and -encoders.
func fakeTool(t *testing.T, name, version, encoders string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"  -version) printf '%s\\n' '" + version + "' ;;\n" +
		"  -encoders) cat <<'LIST'\n" + encoders + "LIST\n ;;\n" +
		"  *) exit 1 ;;\n" +
		"esac\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestFFmpegChecker(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		encoders string
		wantErr  string
	}{
		{
			name:     "all encoders present",
			version:  "ffmpeg version 6.1 Copyright (c) 2000-2023",
			encoders: encoderListing,
		},
		{
			name:     "missing mp3",
			version:  "ffmpeg version 6.1",
			encoders: " V....D bmp   BMP\n",
			wantErr:  "ffmpeg is missing encoders: [mp3]",
		},
		{
			name:     "wrong binary",
			version:  "something else 1.0",
			encoders: encoderListing,
			wantErr:  "unexpected ffmpeg version output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewFFmpegChecker(fakeTool(t, "ffmpeg", tt.version, tt.encoders))
			err := checker.Check(context.Background())
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFFplayChecker(t *testing.T) {
	checker := NewFFplayChecker(fakeTool(t, "ffplay", "ffplay version 6.1", ""))
	assert.Equal(t, "ffplay", checker.Name())
	require.NoError(t, checker.Check(context.Background()))

	v, err := checker.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ffplay version 6.1", v)
}

func TestToolCheckerMissingBinary(t *testing.T) {
	checker := NewFFmpegChecker("/nonexistent/ffmpeg")
	assert.Equal(t, "/nonexistent/ffmpeg", checker.BinaryPath())
	assert.Error(t, checker.Check(context.Background()))

	empty := &ToolChecker{name: "ffmpeg"}
	assert.EqualError(t, empty.Check(context.Background()), "ffmpeg binary not found in PATH")
}

func TestMissingEntries(t *testing.T) {
	assert.Empty(t, missingEntries(encoderListing, []string{"bmp", "mp3"}))
	assert.Equal(t, []string{"h264"}, missingEntries(encoderListing, []string{"bmp", "h264"}))
	assert.Equal(t, []string{"bmp"}, missingEntries("", []string{"bmp"}))
}
