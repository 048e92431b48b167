package conflict

import (
	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
)

// MatchWorks matches works between the ours and theirs sides of a conflict
// region. It matches by owner and work id first, then by a shared strong
// self identifier within the same owner.
func MatchWorks(region ConflictRegion) MatchResult {
	result := MatchResult{}

	oursByID := make(map[WorkRef]int)
	for i, w := range region.Ours {
		oursByID[refOf(w)] = i
	}
	oursMatched := make(map[int]bool)
	theirsMatched := make(map[int]bool)

	// First pass: match by owner and work id
	for j, theirs := range region.Theirs {
		if i, ok := oursByID[refOf(theirs)]; ok && !oursMatched[i] {
			result.Matches = append(result.Matches, WorkMatch{
				Ours:      region.Ours[i],
				Theirs:    theirs,
				MatchedBy: "work_id",
			})
			oursMatched[i] = true
			theirsMatched[j] = true
		}
	}

	// Second pass: match remaining works by strong identifier
	type ownedKey struct {
		owner string
		key   extid.Key
	}
	oursByKey := make(map[ownedKey]int)
	for i, w := range region.Ours {
		if oursMatched[i] {
			continue
		}
		for _, k := range strongKeys(w) {
			if _, ok := oursByKey[ownedKey{w.OwnerID, k}]; !ok {
				oursByKey[ownedKey{w.OwnerID, k}] = i
			}
		}
	}
	for j, theirs := range region.Theirs {
		if theirsMatched[j] {
			continue
		}
		for _, k := range strongKeys(theirs) {
			i, ok := oursByKey[ownedKey{theirs.OwnerID, k}]
			if !ok || oursMatched[i] {
				continue
			}
			result.Matches = append(result.Matches, WorkMatch{
				Ours:      region.Ours[i],
				Theirs:    theirs,
				MatchedBy: "identifier",
			})
			oursMatched[i] = true
			theirsMatched[j] = true
			break
		}
	}

	for i, w := range region.Ours {
		if !oursMatched[i] {
			result.OursOnly = append(result.OursOnly, w)
		}
	}
	for j, w := range region.Theirs {
		if !theirsMatched[j] {
			result.TheirsOnly = append(result.TheirsOnly, w)
		}
	}

	return result
}

func strongKeys(w work.Work) []extid.Key {
	var keys []extid.Key
	for _, id := range w.Identifiers {
		if !id.IsSelf() {
			continue
		}
		if k, ok := extid.Normalize(id); ok && k.Strong() {
			keys = append(keys, k)
		}
	}
	return keys
}
