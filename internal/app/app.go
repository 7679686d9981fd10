// Package app runs the create-once, read-always document flow.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/mailxml/internal/display"
	"github.com/shineum/mailxml/internal/email"
	"github.com/shineum/mailxml/internal/provider"
	"github.com/shineum/mailxml/internal/store"
	"github.com/shineum/mailxml/internal/xmlfile"
)

// Config holds the collaborators of an App.
type Config struct {
	// Store holds the document.
	Store *store.Store

	// File is the document name inside Store.
	File string

	// Parser reads the document. If nil, the default parser is used.
	Parser *xmlfile.Parser

	// Seed is written when the document does not exist yet.
	// If zero, email.Sample() is used.
	Seed email.Record

	// Sink receives each parsed field. Optional.
	Sink display.Sink

	// Provider receives the parsed record. If nil, records are discarded.
	Provider provider.Provider

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// App wires the document store to the reader and its consumers.
type App struct {
	config Config
	logger *slog.Logger
}

// New creates an App with the given configuration.
func New(cfg Config) *App {
	if cfg.Parser == nil {
		cfg.Parser = xmlfile.NewParser()
	}
	if cfg.Seed == (email.Record{}) {
		cfg.Seed = email.Sample()
	}
	if cfg.Provider == nil {
		cfg.Provider = provider.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{config: cfg, logger: logger}
}

// Run writes the seed record if the document is absent, then reads the
// document and hands the result to the sink and the provider.
func (a *App) Run(ctx context.Context) (email.Record, error) {
	created, err := a.Ensure()
	if err != nil {
		return email.Record{}, err
	}
	if created {
		a.logger.Info("created document", "file", a.config.File, "dir", a.config.Store.Dir())
	}

	return a.Show(ctx)
}

// Ensure writes the seed record unless the document already exists. It
// reports whether a new document was written.
func (a *App) Ensure() (bool, error) {
	ok, err := a.config.Store.Exists(a.config.File)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	if err := a.config.Store.WriteRecord(a.config.File, a.config.Seed); err != nil {
		// Lost a race with another writer; the document is there now.
		if errors.Is(err, store.ErrExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create document: %w", err)
	}
	return true, nil
}

// Write writes the seed record. With force, an existing document is removed
// first; otherwise an existing document is an error.
func (a *App) Write(force bool) error {
	if force {
		if err := a.config.Store.Remove(a.config.File); err != nil {
			return err
		}
	}
	if err := a.config.Store.WriteRecord(a.config.File, a.config.Seed); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	a.logger.Info("wrote document", "file", a.config.File, "dir", a.config.Store.Dir())
	return nil
}

// Show reads the document and hands it to the sink and the provider. It
// does not create the document.
func (a *App) Show(ctx context.Context) (email.Record, error) {
	rec, err := a.config.Store.ReadRecord(a.config.File, a.config.Parser)
	if err != nil {
		return rec, err
	}

	if missing := rec.Missing(); len(missing) > 0 {
		a.logger.Warn("document is missing fields", "file", a.config.File, "fields", missing)
	}

	if a.config.Sink != nil {
		display.Populate(a.config.Sink, rec)
	}

	if err := a.config.Provider.Send(ctx, &rec); err != nil {
		return rec, fmt.Errorf("provider %s: %w", a.config.Provider.Name(), err)
	}
	a.logger.Debug("record delivered", "provider", a.config.Provider.Name())

	return rec, nil
}
