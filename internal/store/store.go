// Package store keeps Email documents in a private directory. It is backed
// by an afero.Fs so callers can run it on disk or in memory.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/shineum/mailxml/internal/email"
	"github.com/shineum/mailxml/internal/xmlfile"
)

const (
	dirMode  fs.FileMode = 0o700
	fileMode fs.FileMode = 0o600
)

var (
	// ErrNotFound is returned by OpenForRead when the document is absent.
	ErrNotFound = errors.New("document not found")

	// ErrExists is returned by OpenForWrite when the document is present.
	ErrExists = errors.New("document already exists")

	// ErrInvalidName is returned for names that are empty or escape the
	// store directory.
	ErrInvalidName = errors.New("invalid document name")
)

// Store reads and writes named documents under a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store rooted at dir on the given filesystem.
func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: filepath.Clean(dir)}
}

// NewOS returns a Store rooted at dir on the host filesystem.
func NewOS(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of the named document.
func (s *Store) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether the named document is present.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ok, nil
}

// OpenForWrite creates the named document for exclusive writing. It fails
// with ErrExists if the document is already present.
func (s *Store) OpenForWrite(name string) (io.WriteCloser, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(s.dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrExists)
		}
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// OpenForRead opens the named document for reading. It fails with
// ErrNotFound if the document is absent.
func (s *Store) OpenForRead(name string) (io.ReadCloser, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// Remove deletes the named document. Removing an absent document is not an
// error.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// WriteRecord serializes rec into a new document. The file is closed on
// every path. If writing or closing fails, the partial document is removed
// so a later Exists does not report it.
func (s *Store) WriteRecord(name string, rec email.Record) error {
	w, err := s.OpenForWrite(name)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)

	if err := xmlfile.Serialize(w, rec); err != nil {
		_ = w.Close()
		s.discard(path)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		s.discard(path)
		return fmt.Errorf("failed to write %s: %w", name, &xmlfile.IOError{Op: "write", Err: err})
	}

	slog.Debug("document written", "path", path)
	return nil
}

// discard removes a document this process created but could not finish.
func (s *Store) discard(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove partial document", "path", path, "error", err)
	}
}

// ReadRecord parses the named document with p, or the default parser when
// p is nil. A partially populated record is returned alongside parse errors.
func (s *Store) ReadRecord(name string, p *xmlfile.Parser) (email.Record, error) {
	r, err := s.OpenForRead(name)
	if err != nil {
		return email.Record{}, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			slog.Warn("failed to close document", "name", name, "error", cerr)
		}
	}()

	if p == nil {
		p = xmlfile.NewParser()
	}
	rec, err := p.Parse(r)
	if err != nil {
		return rec, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return rec, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
