// Package bulk resolves explicit, ordered lists of work ids into full work
// records with partial-failure semantics.
package bulk

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
)

// MaxBulkSize is the largest number of entries one request may name.
const MaxBulkSize = 100

// Fetcher loads works by id. Implementations may omit ids they cannot find
// and may return works in any order.
type Fetcher interface {
	FetchByIDs(ctx context.Context, ownerID string, ids []int64) ([]work.Work, error)
}

// Failure describes one entry that could not be resolved.
type Failure struct {
	Position int    `json:"position"`
	Input    string `json:"input"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// Result is the outcome of a bulk request.
type Result struct {
	// Requested echoes the entries as given.
	Requested []string `json:"requested"`

	// Resolved holds one work per resolvable entry, in request order.
	// Duplicate entries appear once per position.
	Resolved []work.Work `json:"resolved"`

	// Missing lists well-formed ids with no record, unique, first-seen order.
	Missing []int64 `json:"missing"`

	// Malformed lists entries that are not valid work ids, in request order.
	Malformed []string `json:"malformed"`

	// Failures has one entry per unresolved position.
	Failures []Failure `json:"failures"`
}

// Assembler resolves bulk requests against a Fetcher.
type Assembler struct {
	store  Fetcher
	logger zerolog.Logger
}

// NewAssembler creates an assembler. A zero logger discards output.
func NewAssembler(store Fetcher, logger zerolog.Logger) *Assembler {
	return &Assembler{store: store, logger: logger}
}

// ParseList splits the comma-separated form of a bulk request. Blank
// entries are kept so that they are reported as malformed.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ParseID parses a single positive base-10 work id.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &MalformedInputError{Input: s}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &MalformedInputError{Input: s}
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &MalformedInputError{Input: s}
	}
	return id, nil
}

// Resolve looks up every requested entry. Per-entry problems are collected
// in the result; only an oversized request or a store failure is returned
// as an error.
func (a *Assembler) Resolve(ctx context.Context, ownerID string, requested []string) (*Result, error) {
	if len(requested) > MaxBulkSize {
		return nil, fmt.Errorf("%w: %d entries, limit is %d", ErrTooManyRequested, len(requested), MaxBulkSize)
	}

	res := &Result{
		Requested: append([]string{}, requested...),
		Resolved:  []work.Work{},
		Missing:   []int64{},
		Malformed: []string{},
		Failures:  []Failure{},
	}

	// A zero entry in parsed marks a malformed position.
	parsed := make([]int64, len(requested))
	var unique []int64
	seen := make(map[int64]bool)
	for i, raw := range requested {
		id, err := ParseID(raw)
		if err != nil {
			continue
		}
		parsed[i] = id
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found := make(map[int64]work.Work, len(unique))
	if len(unique) > 0 {
		works, err := a.store.FetchByIDs(ctx, ownerID, unique)
		if err != nil {
			return nil, fmt.Errorf("fetching works for %s: %w", ownerID, err)
		}
		for _, w := range works {
			if seen[w.WorkID] {
				found[w.WorkID] = w
			}
		}
	}

	reported := make(map[int64]bool)
	for i, id := range parsed {
		if id == 0 {
			raw := requested[i]
			res.Malformed = append(res.Malformed, raw)
			res.Failures = append(res.Failures, newFailure(i, raw, &MalformedInputError{Input: strings.TrimSpace(raw)}))
			continue
		}
		if w, ok := found[id]; ok {
			res.Resolved = append(res.Resolved, w)
			continue
		}
		if !reported[id] {
			reported[id] = true
			res.Missing = append(res.Missing, id)
		}
		res.Failures = append(res.Failures, newFailure(i, requested[i], &NotFoundError{ID: id}))
	}

	a.logger.Debug().
		Str("owner", ownerID).
		Int("requested", len(requested)).
		Int("resolved", len(res.Resolved)).
		Int("missing", len(res.Missing)).
		Int("malformed", len(res.Malformed)).
		Msg("resolved bulk request")

	return res, nil
}

// ResolveIDs is Resolve for callers that already hold numeric ids.
// Non-positive ids are reported as malformed.
func (a *Assembler) ResolveIDs(ctx context.Context, ownerID string, ids []int64) (*Result, error) {
	requested := make([]string, len(ids))
	for i, id := range ids {
		requested[i] = strconv.FormatInt(id, 10)
	}
	return a.Resolve(ctx, ownerID, requested)
}

func newFailure(pos int, input string, err error) Failure {
	return Failure{Position: pos, Input: input, Err: err, Message: err.Error()}
}
