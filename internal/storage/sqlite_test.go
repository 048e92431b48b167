package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
)

var testModified = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func testWorks() []work.Work {
	return []work.Work{
		{
			OwnerID: testOwner,
			WorkID:  5,
			Title:   "Machine Learning in Biology",
			Type:    "journal-article",
			Authors: []work.Author{{Name: "John Smith", ORCID: "0000-0001-2345-6789"}, {Name: "Jane Doe"}},
			Venue:   "Nature",
			Identifiers: []work.ExternalIdentifier{
				{Type: work.IDDOI, Value: "https://doi.org/10.1234/SMITH", Relationship: work.RelSelf},
				{Type: work.IDISSN, Value: "0028-0836", Relationship: work.RelPartOf},
			},
			Published:    work.PublicationDate{Year: 2026, Month: 3, Day: 15},
			Visibility:   work.VisibilityPublic,
			Featured:     true,
			LastModified: testModified,
			Source:       work.Source{Type: "orcid", Name: "Crossref"},
		},
		{
			OwnerID:      testOwner,
			WorkID:       3,
			Title:        "Deep Learning for Protein Structure",
			Identifiers:  []work.ExternalIdentifier{{Type: work.IDDOI, Value: "10.1234/smith"}},
			Published:    work.PublicationDate{Year: 2025},
			Visibility:   work.VisibilityPrivate,
			LastModified: testModified.Add(-time.Hour),
			Source:       work.Source{Type: "manual"},
		},
		{
			OwnerID:      "0000-0001-5109-3700",
			WorkID:       5,
			Title:        "Statistical Methods in Genomics",
			Identifiers:  []work.ExternalIdentifier{{Type: work.IDUnknown, RawType: "rrid", Value: "AB_1"}},
			Visibility:   work.VisibilityPublic,
			LastModified: testModified,
			Source:       work.Source{Type: "manual"},
		},
	}
}

// setupTestDB creates a test database and JSONL file with test data
func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	jsonlPath := filepath.Join(tmpDir, "works.jsonl")

	if err := WriteAll(jsonlPath, testWorks()); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RebuildFromJSONL(context.Background(), jsonlPath); err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}

	return db, tmpDir
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("OpenDB() did not create database file")
	}
}

func TestDB_RebuildFromJSONL(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	ctx := context.Background()

	count, err := db.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// A repeated (owner, work id) replaces the earlier record.
	jsonlPath := filepath.Join(tmpDir, "works.jsonl")
	newWorks := []work.Work{
		{OwnerID: "x", WorkID: 1, Title: "Old", Visibility: work.VisibilityPublic,
			Identifiers: []work.ExternalIdentifier{{Type: work.IDDOI, Value: "10.9/old"}}},
		{OwnerID: "x", WorkID: 1, Title: "New", Visibility: work.VisibilityPublic,
			Identifiers: []work.ExternalIdentifier{{Type: work.IDDOI, Value: "10.9/new"}}},
	}
	if err := WriteAll(jsonlPath, newWorks); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	rebuilt, err := db.RebuildFromJSONL(ctx, jsonlPath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if rebuilt != 1 {
		t.Errorf("RebuildFromJSONL() = %d, want 1", rebuilt)
	}

	w, err := db.FetchByID(ctx, "x", 1)
	if err != nil {
		t.Fatalf("FetchByID() error = %v", err)
	}
	if w.Title != "New" {
		t.Errorf("Title = %q, want New", w.Title)
	}

	old, err := db.FetchByKey(ctx, "", extid.Key{Type: work.IDDOI, Value: "10.9/old"})
	if err != nil {
		t.Fatalf("FetchByKey() error = %v", err)
	}
	if len(old) != 0 {
		t.Errorf("FetchByKey(old) = %d works, want 0 after replacement", len(old))
	}
}

func TestDB_FetchByOwner(t *testing.T) {
	db, _ := setupTestDB(t)

	works, err := db.FetchByOwner(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("FetchByOwner() error = %v", err)
	}
	if len(works) != 2 {
		t.Fatalf("FetchByOwner() returned %d works, want 2", len(works))
	}
	if works[0].WorkID != 5 || works[1].WorkID != 3 {
		t.Errorf("FetchByOwner() order = %d, %d, want file order 5, 3", works[0].WorkID, works[1].WorkID)
	}

	none, err := db.FetchByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FetchByOwner() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("FetchByOwner(nobody) returned %d works", len(none))
	}
}

func TestDB_FetchByID_FullWork(t *testing.T) {
	db, _ := setupTestDB(t)

	got, err := db.FetchByID(context.Background(), testOwner, 5)
	if err != nil {
		t.Fatalf("FetchByID() error = %v", err)
	}

	want := testWorks()[0]
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("FetchByID() mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestDB_FetchByID_NotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.FetchByID(context.Background(), testOwner, 999)
	if !errors.Is(err, work.ErrNotFound) {
		t.Errorf("FetchByID() error = %v, want work.ErrNotFound", err)
	}
}

func TestDB_FetchByIDs(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	works, err := db.FetchByIDs(ctx, testOwner, []int64{3, 9, 5})
	if err != nil {
		t.Fatalf("FetchByIDs() error = %v", err)
	}
	got := map[int64]bool{}
	for _, w := range works {
		if w.OwnerID != testOwner {
			t.Errorf("FetchByIDs() returned work of %s", w.OwnerID)
		}
		got[w.WorkID] = true
	}
	if !reflect.DeepEqual(got, map[int64]bool{3: true, 5: true}) {
		t.Errorf("FetchByIDs() ids = %v, want 3 and 5", got)
	}

	empty, err := db.FetchByIDs(ctx, testOwner, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("FetchByIDs(nil) = %v, %v", empty, err)
	}
}

func TestDB_FetchByKey(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	key := extid.Key{Type: work.IDDOI, Value: "10.1234/smith"}
	works, err := db.FetchByKey(ctx, testOwner, key)
	if err != nil {
		t.Fatalf("FetchByKey() error = %v", err)
	}
	if len(works) != 2 {
		t.Errorf("FetchByKey(%s) returned %d works, want 2", key, len(works))
	}

	issn := extid.Key{Type: work.IDISSN, Value: "0028-0836"}
	works, err = db.FetchByKey(ctx, "", issn)
	if err != nil {
		t.Fatalf("FetchByKey() error = %v", err)
	}
	if len(works) != 1 || works[0].WorkID != 5 {
		t.Errorf("FetchByKey(%s) = %+v, want work 5", issn, works)
	}
}

func TestDB_Owners(t *testing.T) {
	db, _ := setupTestDB(t)

	owners, err := db.Owners(context.Background())
	if err != nil {
		t.Fatalf("Owners() error = %v", err)
	}
	want := []string{"0000-0001-5109-3700", testOwner}
	if !reflect.DeepEqual(owners, want) {
		t.Errorf("Owners() = %v, want %v", owners, want)
	}

	n, err := db.Count(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count(%s) = %d, want 2", testOwner, n)
	}
}
