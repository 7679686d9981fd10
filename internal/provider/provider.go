// Package provider defines where a loaded email record is delivered.
package provider

import (
	"context"

	"github.com/shineum/mailxml/internal/email"
)

// Provider is the interface that record sinks must implement.
// Each provider hands the parsed record to its target
// (e.g., the terminal, AWS SES).
type Provider interface {
	// Send delivers the record through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, rec *email.Record) error

	// Name returns the human-readable name of this provider.
	Name() string
}

// Nop discards every record.
type Nop struct{}

// Send does nothing.
func (Nop) Send(context.Context, *email.Record) error { return nil }

// Name returns the provider name.
func (Nop) Name() string { return "none" }
