package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matsen/works/internal/work"
)

const testOwner = "0000-0002-1825-0097"

func TestReadAll_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	f.Close()

	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 0 {
		t.Errorf("ReadAll() returned %d works, want 0", len(works))
	}
}

func TestReadAll_NonExistentFile(t *testing.T) {
	works, err := ReadAll("/nonexistent/path/works.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(works) != 0 {
		t.Errorf("ReadAll() returned %v, want nil or empty slice", works)
	}
}

func TestReadAll_SingleWork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	content := `{"owner_id":"0000-0002-1825-0097","work_id":42,"title":"Test Paper","identifiers":[{"type":"doi","value":"10.1234/test","relationship":"self"}],"visibility":"public","last_modified":"2025-03-01T10:00:00Z","published":{"year":2025},"source":{"type":"orcid"}}`
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("ReadAll() returned %d works, want 1", len(works))
	}

	w := works[0]
	if w.WorkID != 42 {
		t.Errorf("WorkID = %d, want 42", w.WorkID)
	}
	if w.Title != "Test Paper" {
		t.Errorf("Title = %q, want Test Paper", w.Title)
	}
	if len(w.Identifiers) != 1 || w.Identifiers[0].Type != work.IDDOI {
		t.Errorf("Identifiers = %+v, want one DOI", w.Identifiers)
	}
	if w.Visibility != work.VisibilityPublic {
		t.Errorf("Visibility = %q, want public", w.Visibility)
	}
}

func TestReadAll_SkipsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	content := `{"owner_id":"a","work_id":1,"title":"One","visibility":"public","last_modified":"2025-01-01T00:00:00Z","published":{},"source":{"type":"manual"}}

{"owner_id":"a","work_id":2,"title":"Two","visibility":"private","last_modified":"2025-01-01T00:00:00Z","published":{},"source":{"type":"manual"}}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 2 {
		t.Errorf("ReadAll() returned %d works, want 2", len(works))
	}
}

func TestReadAll_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	if err := os.WriteFile(path, []byte("{not json}\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll() expected error for invalid JSON")
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	for _, id := range []int64{1, 2} {
		if err := Append(path, work.Work{OwnerID: testOwner, WorkID: id, Title: "T"}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 2 {
		t.Fatalf("ReadAll() returned %d works, want 2", len(works))
	}
	if works[0].WorkID != 1 || works[1].WorkID != 2 {
		t.Errorf("Append() order = %d, %d, want 1, 2", works[0].WorkID, works[1].WorkID)
	}
}

func TestWriteAll_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	if err := WriteAll(path, []work.Work{{WorkID: 1}, {WorkID: 2}, {WorkID: 3}}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := WriteAll(path, []work.Work{{WorkID: 9}}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 1 || works[0].WorkID != 9 {
		t.Errorf("ReadAll() after overwrite = %+v, want single work 9", works)
	}
}

func TestFindByID(t *testing.T) {
	works := []work.Work{
		{OwnerID: "a", WorkID: 1},
		{OwnerID: "b", WorkID: 1},
		{OwnerID: "a", WorkID: 2},
	}

	tests := []struct {
		owner   string
		id      int64
		wantIdx int
		wantOK  bool
	}{
		{"a", 1, 0, true},
		{"b", 1, 1, true},
		{"a", 2, 2, true},
		{"b", 2, -1, false},
	}

	for _, tt := range tests {
		idx, ok := FindByID(works, tt.owner, tt.id)
		if idx != tt.wantIdx || ok != tt.wantOK {
			t.Errorf("FindByID(%s, %d) = (%d, %v), want (%d, %v)", tt.owner, tt.id, idx, ok, tt.wantIdx, tt.wantOK)
		}
	}
}

func TestReplaceOwner(t *testing.T) {
	existing := []work.Work{
		{OwnerID: "a", WorkID: 1},
		{OwnerID: "b", WorkID: 1},
		{OwnerID: "a", WorkID: 2},
		{OwnerID: "c", WorkID: 1},
	}
	fresh := []work.Work{{OwnerID: "a", WorkID: 7}, {OwnerID: "a", WorkID: 8}}

	got := ReplaceOwner(existing, "a", fresh)
	want := []work.Work{
		{OwnerID: "a", WorkID: 7},
		{OwnerID: "a", WorkID: 8},
		{OwnerID: "b", WorkID: 1},
		{OwnerID: "c", WorkID: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReplaceOwner() = %+v, want %+v", got, want)
	}

	got = ReplaceOwner(existing, "d", fresh[:1])
	if len(got) != 5 || got[4].WorkID != 7 {
		t.Errorf("ReplaceOwner() for new owner = %+v, want fresh appended", got)
	}
}

func TestRoundTrip_CompleteWork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.jsonl")

	original := work.Work{
		OwnerID:          testOwner,
		WorkID:           123456,
		Title:            "Phylogenetic Inference at Scale",
		Type:             "journal-article",
		Authors:          []work.Author{{Name: "Josiah Carberry", ORCID: testOwner, Role: "author"}},
		Venue:            "Systematic Biology",
		ShortDescription: "Methods for large trees.",
		URL:              "https://example.org/paper",
		Published:        work.PublicationDate{Year: 2024, Month: 6, Day: 3},
		Identifiers: []work.ExternalIdentifier{
			{Type: work.IDDOI, Value: "10.1093/sysbio/abc", Relationship: work.RelSelf},
			{Type: work.IDISSN, Value: "1063-5157", Relationship: work.RelPartOf},
		},
		Visibility:   work.VisibilityLimited,
		Featured:     true,
		LastModified: time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC),
		Source:       work.Source{Type: "orcid", Name: "Crossref Metadata Search"},
	}

	if err := WriteAll(path, []work.Work{original}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	works, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("ReadAll() returned %d works, want 1", len(works))
	}
	if !reflect.DeepEqual(works[0], original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", works[0], original)
	}
}
