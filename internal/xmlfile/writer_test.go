package xmlfile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shineum/mailxml/internal/email"
)

const sampleDocument = `<?xml version='1.0' encoding='UTF-8' ?>` +
	`<Email>` +
	`<From Name="David">ddandres@disca.upv.es</From>` +
	`<To Name="Juan Carlos">jcruizg@disca.upv.es</To>` +
	`<Subject>Next class</Subject>` +
	`<Body>Remember to bring your smartphone to the next class</Body>` +
	`</Email>`

// failingWriter rejects every write.
type failingWriter struct {
	err error
}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, f.err
}

func TestSerialize_SampleBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Serialize(&buf, email.Sample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := buf.String(); got != sampleDocument {
		t.Errorf("Serialize():\n got %s\nwant %s", got, sampleDocument)
	}
}

func TestSerialize_Idempotent(t *testing.T) {
	t.Parallel()

	rec := email.Sample()
	rec.Subject = `Tom & Jerry <"quoted"> 'single'`

	var first, second bytes.Buffer
	if err := Serialize(&first, rec); err != nil {
		t.Fatalf("first Serialize: %v", err)
	}
	if err := Serialize(&second, rec); err != nil {
		t.Fatalf("second Serialize: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("outputs differ:\n%s\n%s", first.String(), second.String())
	}
}

func TestSerialize_EscapesMarkup(t *testing.T) {
	t.Parallel()

	rec := email.Sample()
	rec.From.Name = `Ann "A&B"`
	rec.Body = "1 < 2 & 3 > 2"

	var buf bytes.Buffer
	if err := Serialize(&buf, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`<Body>1 &lt; 2 &amp; 3 &gt; 2</Body>`)) {
		t.Errorf("body not escaped: %s", out)
	}
	if bytes.Contains(buf.Bytes(), []byte(`Name="Ann "A&B""`)) {
		t.Errorf("attribute not escaped: %s", out)
	}
}

func TestSerialize_SinkFailure(t *testing.T) {
	t.Parallel()

	diskFull := errors.New("disk full")
	err := Serialize(&failingWriter{err: diskFull}, email.Sample())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T: %v", err, err)
	}
	if ioErr.Op != "write" {
		t.Errorf("Op: got %q, want %q", ioErr.Op, "write")
	}
	if !errors.Is(err, diskFull) {
		t.Error("expected error to wrap the sink error")
	}
	if !errors.Is(err, ErrIO) {
		t.Error("expected errors.Is(err, ErrIO)")
	}
	if errors.Is(err, ErrParse) {
		t.Error("write failure must not match ErrParse")
	}
}
