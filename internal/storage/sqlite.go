package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectWorkFields contains the standard field list for SELECT queries.
const selectWorkFields = `owner_id, work_id, title, work_type, venue,
	short_description, url,
	pub_year, pub_month, pub_day,
	visibility, featured, last_modified,
	source_type, source_name,
	authors_json, identifiers_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS works (
			owner_id TEXT NOT NULL,
			work_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			work_type TEXT,
			venue TEXT,
			short_description TEXT,
			url TEXT,
			pub_year INTEGER,
			pub_month INTEGER,
			pub_day INTEGER,
			visibility TEXT NOT NULL,
			featured INTEGER NOT NULL DEFAULT 0,
			last_modified TEXT NOT NULL,
			source_type TEXT,
			source_name TEXT,
			authors_json TEXT NOT NULL,
			identifiers_json TEXT NOT NULL,
			PRIMARY KEY (owner_id, work_id)
		);

		CREATE INDEX IF NOT EXISTS idx_works_position ON works(owner_id, position);

		-- One row per identifier; norm_key is the normalized "type:value"
		-- form, NULL when the identifier cannot be normalized.
		CREATE TABLE IF NOT EXISTS work_identifiers (
			owner_id TEXT NOT NULL,
			work_id INTEGER NOT NULL,
			id_type TEXT NOT NULL,
			id_value TEXT NOT NULL,
			relationship TEXT NOT NULL,
			norm_key TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_work_identifiers_key
			ON work_identifiers(norm_key) WHERE norm_key IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_work_identifiers_work
			ON work_identifiers(owner_id, work_id);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
// Records repeating an (owner, work id) pair replace the earlier record.
func (d *DB) RebuildFromJSONL(ctx context.Context, jsonlPath string) (int, error) {
	works, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM works"); err != nil {
		return 0, fmt.Errorf("clearing works table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM work_identifiers"); err != nil {
		return 0, fmt.Errorf("clearing work_identifiers table: %w", err)
	}

	worksStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO works (
			owner_id, work_id, position, title, work_type, venue,
			short_description, url,
			pub_year, pub_month, pub_day,
			visibility, featured, last_modified,
			source_type, source_name,
			authors_json, identifiers_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing works insert: %w", err)
	}
	defer worksStmt.Close()

	clearIDsStmt, err := tx.PrepareContext(ctx, `DELETE FROM work_identifiers WHERE owner_id = ? AND work_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing identifier delete: %w", err)
	}
	defer clearIDsStmt.Close()

	idsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO work_identifiers (owner_id, work_id, id_type, id_value, relationship, norm_key)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing identifier insert: %w", err)
	}
	defer idsStmt.Close()

	for pos, w := range works {
		authorsJSON, err := json.Marshal(w.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %d: %w", w.WorkID, err)
		}
		identifiersJSON, err := json.Marshal(w.Identifiers)
		if err != nil {
			return 0, fmt.Errorf("marshaling identifiers for %d: %w", w.WorkID, err)
		}

		_, err = worksStmt.ExecContext(ctx,
			w.OwnerID, w.WorkID, pos, w.Title,
			nullableStringValue(w.Type), nullableStringValue(w.Venue),
			nullableStringValue(w.ShortDescription), nullableStringValue(w.URL),
			nullableInt(w.Published.Year), nullableInt(w.Published.Month), nullableInt(w.Published.Day),
			string(w.Visibility), w.Featured, w.LastModified.UTC().Format(time.RFC3339Nano),
			nullableStringValue(w.Source.Type), nullableStringValue(w.Source.Name),
			string(authorsJSON), string(identifiersJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting work %s/%d: %w", w.OwnerID, w.WorkID, err)
		}

		if _, err := clearIDsStmt.ExecContext(ctx, w.OwnerID, w.WorkID); err != nil {
			return 0, fmt.Errorf("clearing identifiers for %s/%d: %w", w.OwnerID, w.WorkID, err)
		}
		for _, id := range w.Identifiers {
			var normKey sql.NullString
			if k, ok := extid.Normalize(id); ok {
				normKey = nullableStringValue(k.String())
			}
			rel := id.Relationship
			if rel == "" {
				rel = work.RelSelf
			}
			_, err := idsStmt.ExecContext(ctx, w.OwnerID, w.WorkID, idTypeLabel(id), id.Value, string(rel), normKey)
			if err != nil {
				return 0, fmt.Errorf("inserting identifier for %s/%d: %w", w.OwnerID, w.WorkID, err)
			}
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM works").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting works: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

func idTypeLabel(id work.ExternalIdentifier) string {
	if id.Type != work.IDUnknown {
		return string(id.Type)
	}
	return id.RawType
}

// FetchByOwner returns every work of an owner in source file order.
func (d *DB) FetchByOwner(ctx context.Context, ownerID string) ([]work.Work, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+selectWorkFields+` FROM works WHERE owner_id = ? ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing works for %s: %w", ownerID, err)
	}
	defer rows.Close()

	return scanWorks(rows)
}

// FetchByID returns one work, or an error wrapping work.ErrNotFound.
func (d *DB) FetchByID(ctx context.Context, ownerID string, workID int64) (*work.Work, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+selectWorkFields+` FROM works WHERE owner_id = ? AND work_id = ?`, ownerID, workID)
	w, err := scanWork(row)
	if err != nil {
		return nil, fmt.Errorf("getting work %s/%d: %w", ownerID, workID, err)
	}
	if w == nil {
		return nil, fmt.Errorf("work %s/%d: %w", ownerID, workID, work.ErrNotFound)
	}
	return w, nil
}

// FetchByIDs returns the works among ids that exist. Missing ids are
// skipped and the order of the result is unspecified.
func (d *DB) FetchByIDs(ctx context.Context, ownerID string, ids []int64) ([]work.Work, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+selectWorkFields+` FROM works WHERE owner_id = ? AND work_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("getting works for %s: %w", ownerID, err)
	}
	defer rows.Close()

	return scanWorks(rows)
}

// FetchByKey returns the works of an owner that carry an identifier with
// the given normalized key, under any relationship. An empty owner
// searches every owner.
func (d *DB) FetchByKey(ctx context.Context, ownerID string, key extid.Key) ([]work.Work, error) {
	query := `SELECT ` + selectWorkFields + ` FROM works w
		WHERE EXISTS (
			SELECT 1 FROM work_identifiers i
			WHERE i.owner_id = w.owner_id AND i.work_id = w.work_id AND i.norm_key = ?
		)`
	args := []any{key.String()}
	if ownerID != "" {
		query += " AND w.owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY w.owner_id, w.position"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	defer rows.Close()

	return scanWorks(rows)
}

// Owners returns the distinct owner ids in the index, sorted.
func (d *DB) Owners(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT DISTINCT owner_id FROM works ORDER BY owner_id")
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// Count returns the number of works, for one owner or, with an empty
// owner, in total.
func (d *DB) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	var err error
	if ownerID == "" {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM works").Scan(&count)
	} else {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM works WHERE owner_id = ?", ownerID).Scan(&count)
	}
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanWork(s scanner) (*work.Work, error) {
	var w work.Work
	var workType, venue, desc, url, sourceType, sourceName sql.NullString
	var year, month, day sql.NullInt64
	var visibility, lastModified, authorsJSON, identifiersJSON string

	err := s.Scan(
		&w.OwnerID, &w.WorkID, &w.Title, &workType, &venue,
		&desc, &url,
		&year, &month, &day,
		&visibility, &w.Featured, &lastModified,
		&sourceType, &sourceName,
		&authorsJSON, &identifiersJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	w.Type = workType.String
	w.Venue = venue.String
	w.ShortDescription = desc.String
	w.URL = url.String
	w.Source.Type = sourceType.String
	w.Source.Name = sourceName.String
	w.Visibility = work.Visibility(visibility)
	w.Published = work.PublicationDate{
		Year:  int(year.Int64),
		Month: int(month.Int64),
		Day:   int(day.Int64),
	}

	w.LastModified, err = time.Parse(time.RFC3339Nano, lastModified)
	if err != nil {
		return nil, fmt.Errorf("parsing last_modified for %d: %w", w.WorkID, err)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &w.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %d: %w", w.WorkID, err)
	}
	if err := json.Unmarshal([]byte(identifiersJSON), &w.Identifiers); err != nil {
		return nil, fmt.Errorf("parsing identifiers JSON for %d: %w", w.WorkID, err)
	}

	return &w, nil
}

func scanWorks(rows *sql.Rows) ([]work.Work, error) {
	var works []work.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		if w != nil {
			works = append(works, *w)
		}
	}
	return works, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt treats zero as unknown.
func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
