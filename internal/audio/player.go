// Package audio plays an in-memory soundtrack through ffplay.
package audio

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
)

// Args are the ffplay arguments: no window, exit at end of input, quiet, and
// read the soundtrack from stdin.
var Args = []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}

// Player is a running ffplay process. A nil Player is valid and does nothing.
type Player struct {
	cmd  *exec.Cmd
	log  logger.Logger
	done chan struct{}
	err  error
	once sync.Once
}

// Start launches ffplay at path and feeds it data. It returns a nil Player
// when data is empty.
func Start(ctx context.Context, path string, data []byte, log logger.Logger) (*Player, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if path == "" {
		p, err := exec.LookPath("ffplay")
		if err != nil {
			return nil, errors.WrapAudioError(err, "ffplay not found in PATH")
		}
		path = p
	}

	cmd := exec.CommandContext(ctx, path, Args...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, errors.WrapAudioError(err, "failed to start ffplay")
	}

	p := &Player{
		cmd:  cmd,
		log:  logger.WithComponent(log, "audio").WithField("pid", cmd.Process.Pid),
		done: make(chan struct{}),
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	p.log.WithField("bytes", len(data)).Debug("Audio started")
	return p, nil
}

// Done is closed when ffplay exits.
func (p *Player) Done() <-chan struct{} {
	if p == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

// Stop kills ffplay if it is still running and waits for it to exit. It is
// safe to call more than once.
func (p *Player) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			_ = p.cmd.Process.Kill()
			<-p.done
		}
		p.log.Debug("Audio stopped")
	})
}

// Err returns ffplay's exit error once it has exited.
func (p *Player) Err() error {
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}
