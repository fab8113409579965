package printer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Surface is an out-of-process place a document is printed from
type Surface interface {
	Write(document string) error
	Print(ctx context.Context) error
	Close() error
}

// Opener creates print surfaces
type Opener interface {
	OpenSurface(ctx context.Context) (Surface, error)
}

// FileOpener writes each label to its own HTML file and optionally runs a
// print command with the file path appended as the last argument. A file
// whose print was cancelled or failed is removed when its surface closes.
type FileOpener struct {
	Dir     string
	Command []string

	mu   sync.Mutex
	last string
}

// LastPath returns the file created by the most recent OpenSurface
func (o *FileOpener) LastPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *FileOpener) OpenSurface(context.Context) (Surface, error) {
	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("label-%s.html", time.Now().Format("20060102-150405.000000000"))
	path := filepath.Join(o.Dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create label file: %w", err)
	}
	o.mu.Lock()
	o.last = path
	o.mu.Unlock()
	return &fileSurface{file: f, command: o.Command}, nil
}

type fileSurface struct {
	file    *os.File
	command []string
	printed bool
	closed  bool
}

func (s *fileSurface) Write(document string) error {
	_, err := s.file.WriteString(document)
	return err
}

func (s *fileSurface) Print(ctx context.Context) error {
	if err := s.file.Sync(); err != nil {
		return err
	}
	path := s.file.Name()
	if len(s.command) == 0 {
		s.printed = true
		slog.Info("Label written", "path", path)
		return nil
	}

	args := append(append([]string{}, s.command[1:]...), path)
	out, err := exec.CommandContext(ctx, s.command[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("print command %q failed: %w: %s", s.command[0], err, out)
	}
	s.printed = true
	slog.Info("Label printed", "path", path, "command", s.command[0])
	return nil
}

func (s *fileSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.file.Close()
	if s.printed {
		return err
	}
	if rmErr := os.Remove(s.file.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		slog.Warn("Failed to remove unprinted label file", "path", s.file.Name(), "error", rmErr)
	} else {
		slog.Debug("Removed unprinted label file", "path", s.file.Name())
	}
	return err
}

// Spool keeps the last printed document so a browser can fetch and print it
type Spool struct {
	mu        sync.RWMutex
	document  string
	printedAt time.Time
	disabled  bool
}

func NewSpool() *Spool {
	return &Spool{}
}

// Disable makes OpenSurface fail, as when the host blocks new windows
func (s *Spool) Disable(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
}

func (s *Spool) OpenSurface(context.Context) (Surface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disabled {
		return nil, fmt.Errorf("print spool disabled")
	}
	return &spoolSurface{spool: s}, nil
}

// Document returns the last printed document
func (s *Spool) Document() (string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document, s.printedAt, s.document != ""
}

type spoolSurface struct {
	spool   *Spool
	pending string
	written bool
}

func (s *spoolSurface) Write(document string) error {
	s.pending = document
	s.written = true
	return nil
}

func (s *spoolSurface) Print(context.Context) error {
	if !s.written {
		return fmt.Errorf("nothing written to print")
	}
	s.spool.mu.Lock()
	defer s.spool.mu.Unlock()
	s.spool.document = s.pending
	s.spool.printedAt = time.Now()
	return nil
}

func (s *spoolSurface) Close() error {
	s.pending = ""
	return nil
}
