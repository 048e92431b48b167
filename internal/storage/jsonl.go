// Package storage handles work persistence in JSONL and SQLite formats.
//
// The JSONL file is the source of truth. The SQLite database is a query
// index that can always be rebuilt from it.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/works/internal/work"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all works from a JSONL file.
func ReadAll(path string) ([]work.Work, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file means no works yet
		}
		return nil, fmt.Errorf("opening works file: %w", err)
	}
	defer f.Close()

	var works []work.Work
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var w work.Work
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		works = append(works, w)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading works file: %w", err)
	}

	return works, nil
}

// Append adds a work to the end of a JSONL file.
func Append(path string, w work.Work) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening works file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding work %d: %w", w.WorkID, err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing work %d: %w", w.WorkID, err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// WriteAll writes all works to a JSONL file, replacing existing content.
func WriteAll(path string, works []work.Work) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating works file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, wk := range works {
		data, err := json.Marshal(wk)
		if err != nil {
			return fmt.Errorf("encoding work %d: %w", i, err)
		}

		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing work %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing works file: %w", err)
	}
	return nil
}

// FindByID searches for a work by owner and work id.
func FindByID(works []work.Work, ownerID string, workID int64) (int, bool) {
	for i, w := range works {
		if w.OwnerID == ownerID && w.WorkID == workID {
			return i, true
		}
	}
	return -1, false
}

// ReplaceOwner returns works with every record of ownerID replaced by
// fresh. Other owners' records keep their positions; fresh records take
// the place of the owner's first existing record, or go at the end.
func ReplaceOwner(works []work.Work, ownerID string, fresh []work.Work) []work.Work {
	out := make([]work.Work, 0, len(works)+len(fresh))
	inserted := false
	for _, w := range works {
		if w.OwnerID != ownerID {
			out = append(out, w)
			continue
		}
		if !inserted {
			out = append(out, fresh...)
			inserted = true
		}
	}
	if !inserted {
		out = append(out, fresh...)
	}
	return out
}
