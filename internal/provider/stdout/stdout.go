// Package stdout implements a Provider that prints records as a labelled
// form on standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailxml/internal/display"
	"github.com/shineum/mailxml/internal/email"
)

const separator = "========================================\n"

// Provider prints email records in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send fills a form from the record and prints it.
func (p *Provider) Send(_ context.Context, rec *email.Record) error {
	form := display.NewForm()
	display.Populate(form, *rec)

	var b strings.Builder

	b.WriteString(separator)
	b.WriteString(labelled("From", form.Get(email.FieldFromName), form.Get(email.FieldFromAddress)))
	b.WriteString(labelled("To", form.Get(email.FieldToName), form.Get(email.FieldToAddress)))
	b.WriteString(fmt.Sprintf("Subject: %s\n", form.Get(email.FieldSubject)))
	b.WriteString("Body:\n")
	b.WriteString(form.Get(email.FieldBody) + "\n")
	b.WriteString(separator)

	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return fmt.Errorf("failed to print record: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// labelled formats "Label (name): address", dropping the parentheses when
// the name is empty.
func labelled(label, name, address string) string {
	if name == "" {
		return fmt.Sprintf("%s: %s\n", label, address)
	}
	return fmt.Sprintf("%s (%s): %s\n", label, name, address)
}
