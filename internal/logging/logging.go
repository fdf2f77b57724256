// Package logging builds the logrus loggers used by the CLI, the TUI and the
// server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileName is the log file written by NewFile.
const FileName = "kanban.log"

// New returns a logger writing text lines to w. Only warnings and errors are
// emitted unless debug is set.
func New(w io.Writer, debug bool) *log.Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	l.SetLevel(log.WarnLevel)
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// NewFile returns a logger appending to FileName under dir, for programs that
// own the terminal. The returned closer releases the file.
func NewFile(dir string, debug bool) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, debug), f, nil
}
