package conflict

import (
	"fmt"
	"io"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
)

// Field completeness weights (higher = more important)
const (
	weightAuthors     = 5
	weightIdentifiers = 4
	weightVenue       = 3
	weightPublished   = 2
	weightDescription = 1
)

// Resolve determines the resolution plan for a matched work pair.
// The more recently modified record wins; equal timestamps fall back to
// completeness, and complementary records are merged.
func Resolve(match WorkMatch) ResolutionPlan {
	plan := ResolutionPlan{
		OwnerID: match.Ours.OwnerID,
		WorkID:  match.Ours.WorkID,
	}

	ours, theirs := match.Ours.LastModified, match.Theirs.LastModified
	switch {
	case ours.After(theirs):
		plan.Action = ActionKeepOurs
		plan.Reason = "ours is newer"
		return plan
	case theirs.After(ours):
		plan.Action = ActionKeepTheirs
		plan.Reason = "theirs is newer"
		return plan
	}

	if isComplementary(match.Ours, match.Theirs) {
		plan.Action = ActionMerge
		plan.Reason = "complementary metadata merged"
		return plan
	}

	oursScore := ComputeCompleteness(match.Ours)
	theirsScore := ComputeCompleteness(match.Theirs)
	switch {
	case theirsScore > oursScore:
		plan.Action = ActionKeepTheirs
		plan.Reason = "theirs is more complete"
	case oursScore > theirsScore:
		plan.Action = ActionKeepOurs
		plan.Reason = "ours is more complete"
	default:
		plan.Action = ActionKeepOurs
		plan.Reason = "identical content, keeping ours"
	}
	return plan
}

// isComplementary returns true if each work has fields the other lacks.
func isComplementary(ours, theirs work.Work) bool {
	oursHasExtra := false
	theirsHasExtra := false

	check := func(o, t bool) {
		if o && !t {
			oursHasExtra = true
		}
		if t && !o {
			theirsHasExtra = true
		}
	}
	check(ours.Venue != "", theirs.Venue != "")
	check(ours.ShortDescription != "", theirs.ShortDescription != "")
	check(ours.URL != "", theirs.URL != "")
	check(len(ours.Authors) > 0, len(theirs.Authors) > 0)

	oursDate := dateSpecificity(ours.Published)
	theirsDate := dateSpecificity(theirs.Published)
	check(oursDate > theirsDate, theirsDate > oursDate)

	return oursHasExtra && theirsHasExtra
}

// MergeWorks fills the empty fields of ours from theirs. Identifiers are
// unioned by normalized key and the more specific date is kept.
func MergeWorks(ours, theirs work.Work) work.Work {
	merged := ours
	merged.Title = nonEmpty(ours.Title, theirs.Title)
	merged.Type = nonEmpty(ours.Type, theirs.Type)
	merged.Venue = nonEmpty(ours.Venue, theirs.Venue)
	merged.ShortDescription = nonEmpty(ours.ShortDescription, theirs.ShortDescription)
	merged.URL = nonEmpty(ours.URL, theirs.URL)

	if len(theirs.Authors) > len(ours.Authors) {
		merged.Authors = theirs.Authors
	}
	if dateSpecificity(theirs.Published) > dateSpecificity(ours.Published) {
		merged.Published = theirs.Published
	}
	merged.Identifiers = unionIdentifiers(ours.Identifiers, theirs.Identifiers)
	merged.Featured = ours.Featured || theirs.Featured

	return merged
}

// unionIdentifiers returns a followed by the identifiers of b that a lacks.
func unionIdentifiers(a, b []work.ExternalIdentifier) []work.ExternalIdentifier {
	type seenKey struct {
		key extid.Key
		rel work.Relationship
	}
	seen := make(map[seenKey]bool)
	var out []work.ExternalIdentifier
	add := func(id work.ExternalIdentifier) {
		if k, ok := extid.Normalize(id); ok {
			sk := seenKey{k, id.Relationship}
			if seen[sk] {
				return
			}
			seen[sk] = true
		}
		out = append(out, id)
	}
	for _, id := range a {
		add(id)
	}
	for _, id := range b {
		add(id)
	}
	return out
}

// dateSpecificity returns a score for how specific a date is.
func dateSpecificity(d work.PublicationDate) int {
	score := 0
	if d.Year != 0 {
		score++
	}
	if d.Month != 0 {
		score++
	}
	if d.Day != 0 {
		score++
	}
	return score
}

// nonEmpty returns the first non-empty string.
func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ComputeCompleteness returns a completeness score for a work.
// Higher scores indicate more complete metadata.
func ComputeCompleteness(w work.Work) int {
	score := 0

	if len(w.Authors) > 0 {
		score += weightAuthors
	}
	if len(w.Identifiers) > 0 {
		score += weightIdentifiers
	}
	if w.Venue != "" {
		score += weightVenue
	}
	if w.Published.Year != 0 {
		score += weightPublished
	}
	if w.ShortDescription != "" {
		score += weightDescription
	}

	return score
}

// ApplyResolution applies a resolution plan to produce the resolved work.
func ApplyResolution(match WorkMatch, plan ResolutionPlan) work.Work {
	switch plan.Action {
	case ActionKeepTheirs:
		return match.Theirs
	case ActionMerge:
		return MergeWorks(match.Ours, match.Theirs)
	default:
		return match.Ours
	}
}

// ResolveFile parses a conflicted works.jsonl and returns every work with
// conflicts resolved, in file order, along with the plan for each
// conflicted work. Resolved works take the place of their conflict region.
func ResolveFile(r io.Reader) ([]work.Work, []ResolutionPlan, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, nil, err
	}

	var works []work.Work
	var plans []ResolutionPlan

	clean := parsed.Clean
	for _, region := range parsed.Conflicts {
		for len(clean) > 0 && clean[0].Line < region.StartLine {
			works = append(works, clean[0].Work)
			clean = clean[1:]
		}

		matched := MatchWorks(region)
		for _, m := range matched.Matches {
			plan := Resolve(m)
			plans = append(plans, plan)
			works = append(works, ApplyResolution(m, plan))
		}
		for _, w := range matched.OursOnly {
			plans = append(plans, ResolutionPlan{OwnerID: w.OwnerID, WorkID: w.WorkID, Action: ActionAddOurs, Reason: "only in ours"})
			works = append(works, w)
		}
		for _, w := range matched.TheirsOnly {
			plans = append(plans, ResolutionPlan{OwnerID: w.OwnerID, WorkID: w.WorkID, Action: ActionAddTheirs, Reason: "only in theirs"})
			works = append(works, w)
		}
	}
	for _, c := range clean {
		works = append(works, c.Work)
	}

	return works, plans, nil
}

// String renders the plan for human output.
func (p ResolutionPlan) String() string {
	return fmt.Sprintf("%s/%d: %s (%s)", p.OwnerID, p.WorkID, p.Action, p.Reason)
}
