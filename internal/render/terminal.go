package render

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/term"
	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
)

// Size returns the cell grid of the terminal attached to f.
func Size(f *os.File) (columns, rows int, err error) {
	if !term.IsTerminal(f.Fd()) {
		return 0, 0, errors.NewConfigError("output is not a terminal; set playback.columns and playback.rows")
	}
	columns, rows, err = term.GetSize(f.Fd())
	if err != nil {
		return 0, 0, errors.WrapTerminalError(err, "failed to query terminal size")
	}
	return columns, rows, nil
}

// Session owns the terminal for the duration of playback: raw input,
// alternate screen and hidden cursor. Close restores all of it.
type Session struct {
	in     *os.File
	out    *termenv.Output
	log    logger.Logger
	state  *term.State
	keys   cancelreader.CancelReader
	wg     sync.WaitGroup
	once   sync.Once
	closed error
}

// OpenSession prepares the terminal. Raw mode is skipped when in is not a
// terminal, so output can still be captured.
func OpenSession(in *os.File, out io.Writer, log logger.Logger) (*Session, error) {
	s := &Session{
		in:  in,
		out: termenv.NewOutput(out),
		log: logger.WithComponent(log, "terminal"),
	}

	if in != nil && term.IsTerminal(in.Fd()) {
		state, err := term.MakeRaw(in.Fd())
		if err != nil {
			return nil, errors.WrapTerminalError(err, "failed to enable raw mode")
		}
		s.state = state
	}

	s.out.AltScreen()
	s.out.HideCursor()
	s.out.ClearScreen()
	s.log.Debug("Terminal session opened")
	return s, nil
}

// WatchKeys cancels playback when q, Esc or Ctrl-C is read from input.
// It returns immediately if input cannot be watched.
func (s *Session) WatchKeys(cancel context.CancelFunc) {
	if s.in == nil || s.state == nil {
		return
	}
	r, err := cancelreader.NewReader(s.in)
	if err != nil {
		s.log.WithError(err).Warn("Key watcher unavailable")
		return
	}
	s.keys = r

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if err != nil {
				if !stderrors.Is(err, cancelreader.ErrCanceled) {
					s.log.WithError(err).Debug("Key watcher stopped")
				}
				return
			}
			if IsQuitKey(buf[:n]) {
				s.log.Info("Quit requested")
				cancel()
				return
			}
		}
	}()
}

// IsQuitKey reports whether input contains q, Esc or Ctrl-C.
func IsQuitKey(input []byte) bool {
	for _, b := range input {
		switch b {
		case 'q', 'Q', 0x03, 0x1b:
			return true
		}
	}
	return false
}

// Close restores the terminal. It is safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.keys != nil {
			s.keys.Cancel()
			s.wg.Wait()
			_ = s.keys.Close()
		}

		fmt.Fprint(s.out, endSynchronizedUpdate+resetStyle)
		s.out.ShowCursor()
		s.out.ExitAltScreen()

		if s.state != nil {
			if err := term.Restore(s.in.Fd(), s.state); err != nil {
				s.closed = errors.WrapTerminalError(err, "failed to restore terminal mode")
			}
		}
		s.log.Debug("Terminal session closed")
	})
	return s.closed
}
