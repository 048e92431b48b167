// Package conflict resolves git merge conflicts in works.jsonl by matching
// the works on each side and keeping the most recent record.
package conflict

import (
	"fmt"

	"github.com/matsen/works/internal/work"
)

// ConflictRegion is one <<<<<<< ... >>>>>>> block of works.jsonl with the
// works decoded from each side.
type ConflictRegion struct {
	StartLine int // <<<<<<< marker, 1-indexed
	EndLine   int // >>>>>>> marker

	Ours   []work.Work // HEAD side
	Theirs []work.Work
}

// WorkRef names a work by owner and store id.
type WorkRef struct {
	OwnerID string `json:"owner_id"`
	WorkID  int64  `json:"work_id"`
}

func refOf(w work.Work) WorkRef {
	return WorkRef{OwnerID: w.OwnerID, WorkID: w.WorkID}
}

// WorkMatch represents a work that appears on both sides of a conflict.
type WorkMatch struct {
	Ours      work.Work
	Theirs    work.Work
	MatchedBy string // "work_id" or "identifier"
}

// ResolutionPlan describes how one work of a conflict region is resolved.
type ResolutionPlan struct {
	OwnerID string           `json:"owner_id"`
	WorkID  int64            `json:"work_id"`
	Action  ResolutionAction `json:"action"`
	Reason  string           `json:"reason"`
}

// ResolutionAction indicates the type of resolution applied.
type ResolutionAction string

const (
	ActionKeepOurs   ResolutionAction = "keep_ours"   // Ours is newer or more complete
	ActionKeepTheirs ResolutionAction = "keep_theirs" // Theirs is newer or more complete
	ActionMerge      ResolutionAction = "merge"       // Complementary metadata merged
	ActionAddOurs    ResolutionAction = "add_ours"    // Work only in ours
	ActionAddTheirs  ResolutionAction = "add_theirs"  // Work only in theirs
)

// ParseError represents an error while parsing conflict markers or JSONL.
type ParseError struct {
	Line    int    // Line number where error occurred (1-indexed)
	Message string // Description of the error
	Context string // Surrounding content for debugging
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseResult is a decoded works.jsonl that may contain conflict regions.
type ParseResult struct {
	// Clean holds the works outside any conflict region, in file order.
	Clean []Record

	Conflicts []ConflictRegion

	// Conflicted lists every work named on either side of any region,
	// distinct, in first-seen order.
	Conflicted []WorkRef
}

// Record is a work decoded from a line outside any conflict region.
type Record struct {
	Line int
	Work work.Work
}

// MatchResult contains the result of matching works in a conflict region.
type MatchResult struct {
	Matches    []WorkMatch
	OursOnly   []work.Work
	TheirsOnly []work.Work
}
