package store

import (
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/shineum/mailxml/internal/email"
	"github.com/shineum/mailxml/internal/xmlfile"
)

const docName = "xml_file_internal_storage"

func newMemStore(t *testing.T) *Store {
	t.Helper()
	return New(afero.NewMemMapFs(), "/data/app")
}

func TestExists(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)

	ok, err := s.Exists(docName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("Exists() before write: got true, want false")
	}

	if err := s.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	ok, err = s.Exists(docName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("Exists() after write: got false, want true")
	}
}

func TestWriteReadRecord(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)
	if err := s.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	rec, err := s.ReadRecord(docName, nil)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec != email.Sample() {
		t.Errorf("ReadRecord(): got %+v, want %+v", rec, email.Sample())
	}
}

func TestOpenForWrite_Exclusive(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)
	if err := s.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	_, err := s.OpenForWrite(docName)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("second OpenForWrite: got %v, want ErrExists", err)
	}

	rec := email.Sample()
	rec.Subject = "changed"
	if err := s.WriteRecord(docName, rec); !errors.Is(err, ErrExists) {
		t.Fatalf("second WriteRecord: got %v, want ErrExists", err)
	}

	got, err := s.ReadRecord(docName, nil)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.Subject != "Next class" {
		t.Errorf("document was modified: Subject = %q", got.Subject)
	}
}

func TestOpenForRead_NotFound(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)
	_, err := s.OpenForRead(docName)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("OpenForRead: got %v, want ErrNotFound", err)
	}

	_, err = s.ReadRecord(docName, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadRecord: got %v, want ErrNotFound", err)
	}
}

func TestReadRecord_Malformed(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	s := New(fsys, "/data/app")
	doc := `<Email><Subject>kept</Subject><Body>`
	if err := afero.WriteFile(fsys, "/data/app/"+docName, []byte(doc), 0o600); err != nil {
		t.Fatalf("seeding document: %v", err)
	}

	rec, err := s.ReadRecord(docName, nil)
	if !errors.Is(err, xmlfile.ErrParse) {
		t.Fatalf("ReadRecord: got %v, want ErrParse", err)
	}
	if rec.Subject != "kept" {
		t.Errorf("Subject: got %q, want %q", rec.Subject, "kept")
	}
}

func TestReadRecord_ParserOptions(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	s := New(fsys, "/data/app")
	doc := `<Email><Body>a<i>b</i>c</Body></Email>`
	if err := afero.WriteFile(fsys, "/data/app/"+docName, []byte(doc), 0o600); err != nil {
		t.Fatalf("seeding document: %v", err)
	}

	rec, err := s.ReadRecord(docName, xmlfile.NewParser(xmlfile.WithUnknownTags(xmlfile.KeepCursor)))
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec.Body != "abc" {
		t.Errorf("Body: got %q, want %q", rec.Body, "abc")
	}
}

func TestWriteRecord_ReadOnlyFs(t *testing.T) {
	t.Parallel()

	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data/app")
	err := s.WriteRecord(docName, email.Sample())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrExists) {
		t.Errorf("unexpected ErrExists: %v", err)
	}
}

// diskFullFs creates files whose writes always fail.
type diskFullFs struct {
	afero.Fs
}

func (d diskFullFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := d.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return diskFullFile{File: f}, nil
}

type diskFullFile struct {
	afero.File
}

func (diskFullFile) Write([]byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestWriteRecord_FailedWriteLeavesNoDocument(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	s := New(diskFullFs{Fs: base}, "/data/app")

	err := s.WriteRecord(docName, email.Sample())
	if !errors.Is(err, xmlfile.ErrIO) {
		t.Fatalf("WriteRecord: got %v, want ErrIO", err)
	}

	ok, err := s.Exists(docName)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("partial document left behind after a failed write")
	}

	// A later run on healthy storage can create the document.
	healthy := New(base, "/data/app")
	if err := healthy.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord on healthy storage: %v", err)
	}
	rec, err := healthy.ReadRecord(docName, nil)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec != email.Sample() {
		t.Errorf("ReadRecord(): got %+v, want %+v", rec, email.Sample())
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)
	if err := s.Remove(docName); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	if err := s.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := s.Remove(docName); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, err := s.Exists(docName)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("document still exists after Remove")
	}
}

func TestInvalidNames(t *testing.T) {
	t.Parallel()

	s := newMemStore(t)
	for _, name := range []string{"", ".", "..", "../escape", "sub/doc", `win\doc`} {
		if _, err := s.Exists(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Exists(%q): got %v, want ErrInvalidName", name, err)
		}
		if _, err := s.OpenForWrite(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("OpenForWrite(%q): got %v, want ErrInvalidName", name, err)
		}
		if _, err := s.OpenForRead(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("OpenForRead(%q): got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestNewOS_PrivateFile(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	s := NewOS(t.TempDir())
	if err := s.WriteRecord(docName, email.Sample()); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	path, err := s.Path(docName)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode: got %o, want 600", perm)
	}

	r, err := s.OpenForRead(docName)
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml version='1.0' encoding='UTF-8' ?><Email>") {
		t.Errorf("unexpected file contents: %s", data)
	}
}
