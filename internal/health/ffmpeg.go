package health

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolChecker verifies that an external binary runs and, optionally, that a
// listing it prints (such as ffmpeg -encoders) names every required entry.
type ToolChecker struct {
	name          string
	binaryPath    string
	versionPrefix string
	listFlag      string
	required      []string
	timeout       time.Duration
}

// NewFFmpegChecker checks the transcoder and the bmp and mp3 encoders it
// must provide.
func NewFFmpegChecker(binaryPath string) *ToolChecker {
	return &ToolChecker{
		name:          "ffmpeg",
		binaryPath:    resolve(binaryPath, "ffmpeg"),
		versionPrefix: "ffmpeg version",
		listFlag:      "-encoders",
		required:      []string{"bmp", "mp3"},
		timeout:       5 * time.Second,
	}
}

// NewFFplayChecker checks the audio player.
func NewFFplayChecker(binaryPath string) *ToolChecker {
	return &ToolChecker{
		name:          "ffplay",
		binaryPath:    resolve(binaryPath, "ffplay"),
		versionPrefix: "ffplay version",
		timeout:       5 * time.Second,
	}
}

func resolve(binaryPath, name string) string {
	if binaryPath != "" {
		return binaryPath
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// Name returns the name of the checker.
func (t *ToolChecker) Name() string {
	return t.name
}

// BinaryPath returns the resolved binary, empty if none was found.
func (t *ToolChecker) BinaryPath() string {
	return t.binaryPath
}

// Check runs the binary's -version and listing commands.
func (t *ToolChecker) Check(ctx context.Context) error {
	if t.binaryPath == "" {
		return fmt.Errorf("%s binary not found in PATH", t.name)
	}

	out, err := t.output(ctx, "-version")
	if err != nil {
		return fmt.Errorf("%s version check failed: %w", t.name, err)
	}
	if !strings.Contains(out, t.versionPrefix) {
		return fmt.Errorf("unexpected %s version output", t.name)
	}

	if t.listFlag == "" {
		return nil
	}
	out, err = t.output(ctx, t.listFlag)
	if err != nil {
		return fmt.Errorf("failed to list %s %s: %w", t.name, strings.TrimPrefix(t.listFlag, "-"), err)
	}
	if missing := missingEntries(out, t.required); len(missing) > 0 {
		return fmt.Errorf("%s is missing %s: %v", t.name, strings.TrimPrefix(t.listFlag, "-"), missing)
	}
	return nil
}

// Version returns the first line of -version output.
func (t *ToolChecker) Version(ctx context.Context) (string, error) {
	out, err := t.output(ctx, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	if line = strings.TrimSpace(line); line == "" {
		return "", fmt.Errorf("no version information found")
	}
	return line, nil
}

func (t *ToolChecker) output(ctx context.Context, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, t.binaryPath, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// missingEntries returns the names in required that no listing line
// mentions. Lines look like " V....D bmp   BMP (Windows and OS/2 bitmap)".
func missingEntries(listing string, required []string) []string {
	found := make(map[string]bool, len(required))
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entry := strings.ToLower(fields[1])
		for _, name := range required {
			if strings.Contains(entry, name) {
				found[name] = true
			}
		}
	}

	var missing []string
	for _, name := range required {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
