// Package display defines the sink that presents a parsed record field by
// field.
package display

import (
	"sync"

	"github.com/shineum/mailxml/internal/email"
)

// Sink receives the text of each field.
type Sink interface {
	SetField(id email.FieldID, text string)
}

// Populate calls SetField once per field of rec, in document order.
func Populate(sink Sink, rec email.Record) {
	for _, id := range email.Fields {
		sink.SetField(id, rec.Field(id))
	}
}

// Form is an in-memory Sink holding the last text set for each field.
type Form struct {
	mu     sync.Mutex
	fields map[email.FieldID]string
	calls  int
}

// NewForm returns an empty Form.
func NewForm() *Form {
	return &Form{fields: make(map[email.FieldID]string)}
}

// SetField stores text under id.
func (f *Form) SetField(id email.FieldID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[id] = text
	f.calls++
}

// Get returns the text stored under id.
func (f *Form) Get(id email.FieldID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[id]
}

// Calls returns how many times SetField was called.
func (f *Form) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Record rebuilds a record from the stored fields.
func (f *Form) Record() email.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return email.Record{
		From:    email.Party{Name: f.fields[email.FieldFromName], Address: f.fields[email.FieldFromAddress]},
		To:      email.Party{Name: f.fields[email.FieldToName], Address: f.fields[email.FieldToAddress]},
		Subject: f.fields[email.FieldSubject],
		Body:    f.fields[email.FieldBody],
	}
}
