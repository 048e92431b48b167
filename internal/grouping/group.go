// Package grouping partitions work summaries into groups that describe the
// same underlying work, and proposes weaker merges between those groups.
//
// Groups are computed with a union-find over shared strong self identifiers
// (see extid.Key.Strong). Results are arena-style: groups hold indices into
// the result's flat summary snapshot rather than copies or back-references.
package grouping

import (
	"sort"
	"time"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/visibility"
	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
)

// Options controls a grouping call.
type Options struct {
	// PublicOnly drops non-public summaries before grouping.
	PublicOnly bool

	// Logger receives debug output. The zero value discards everything.
	Logger zerolog.Logger
}

// Group is one set of summaries that share strong self identifiers,
// directly or transitively.
type Group struct {
	// Members index Result.Summaries, most recently modified first.
	Members []int `json:"members"`

	// Identifiers is the sorted union of the members' normalized self keys,
	// weak ones included. Only the strong ones decide membership.
	Identifiers []extid.Key `json:"identifiers"`
}

// Result is the output of GroupWorks. The caller owns it.
type Result struct {
	// Summaries is the deduplicated, filtered input in canonical order.
	Summaries []work.Summary `json:"summaries"`

	// Groups partition Summaries, most recently modified group first.
	Groups []Group `json:"groups"`

	// Duplicates counts input entries collapsed by (owner, work id).
	Duplicates int `json:"duplicates"`

	// Excluded counts summaries dropped by the public-only filter.
	Excluded int `json:"excluded"`
}

// Members returns the summaries of group g in member order.
func (r *Result) Members(g int) []work.Summary {
	idx := r.Groups[g].Members
	out := make([]work.Summary, len(idx))
	for i, m := range idx {
		out[i] = r.Summaries[m]
	}
	return out
}

// Latest returns the LastModified of the most recent member of group g.
func (r *Result) Latest(g int) time.Time {
	return r.Summaries[r.Groups[g].Members[0]].LastModified
}

// GroupWithKey returns the group whose identifiers contain k. A strong key
// belongs to at most one group; a weak key may be held by several, in which
// case the most recently modified of them is returned.
func (r *Result) GroupWithKey(k extid.Key) (int, bool) {
	for g, grp := range r.Groups {
		i := sort.Search(len(grp.Identifiers), func(i int) bool {
			return !grp.Identifiers[i].Less(k)
		})
		if i < len(grp.Identifiers) && grp.Identifiers[i] == k {
			return g, true
		}
	}
	return -1, false
}

// GroupOf returns the group containing the given work.
func (r *Result) GroupOf(ownerID string, workID int64) (int, bool) {
	for g, grp := range r.Groups {
		for _, m := range grp.Members {
			s := r.Summaries[m]
			if s.OwnerID == ownerID && s.WorkID == workID {
				return g, true
			}
		}
	}
	return -1, false
}

type workKey struct {
	owner string
	id    int64
}

// GroupWorks partitions summaries into groups of the same work.
//
// Entries repeating an (owner, work id) pair are collapsed, the last one
// winning. With PublicOnly, non-public summaries are removed before any
// grouping happens. The output does not depend on input order.
//
// The only error is *InvariantViolation, which signals an engine bug.
func GroupWorks(summaries []work.Summary, opts Options) (*Result, error) {
	res := &Result{
		Summaries: dedupe(summaries),
		Groups:    []Group{},
	}
	res.Duplicates = len(summaries) - len(res.Summaries)

	if opts.PublicOnly {
		before := len(res.Summaries)
		res.Summaries = visibility.PublicOnly(res.Summaries)
		res.Excluded = before - len(res.Summaries)
	}

	sortCanonical(res.Summaries)

	n := len(res.Summaries)
	self := make([][]extid.Key, n)
	strong := make([][]extid.Key, n)
	index := make(map[extid.Key][]int)
	for i, s := range res.Summaries {
		self[i] = selfKeys(s)
		strong[i] = strongOnly(self[i])
		for _, k := range strong[i] {
			index[k] = append(index[k], i)
		}
	}

	ds := newDisjointSet(n)
	unions := 0
	for _, members := range index {
		for _, m := range members[1:] {
			if ds.union(members[0], m) {
				unions++
			}
		}
	}

	// Components are numbered in the order their first member appears in
	// the canonical snapshot, which is already the required group order.
	groupOf := make(map[int]int)
	for i := 0; i < n; i++ {
		root := ds.find(i)
		g, ok := groupOf[root]
		if !ok {
			g = len(res.Groups)
			groupOf[root] = g
			res.Groups = append(res.Groups, Group{})
		}
		res.Groups[g].Members = append(res.Groups[g].Members, i)
	}

	for g := range res.Groups {
		res.Groups[g].Identifiers = unionKeys(res.Groups[g].Members, self)
	}

	if err := verify(res, strong); err != nil {
		opts.Logger.Error().Err(err).Msg("grouping produced an invalid partition")
		return nil, err
	}

	opts.Logger.Debug().
		Int("input", len(summaries)).
		Int("duplicates", res.Duplicates).
		Int("excluded", res.Excluded).
		Int("keys", len(index)).
		Int("unions", unions).
		Int("groups", len(res.Groups)).
		Msg("grouped works")

	return res, nil
}

// dedupe collapses repeated (owner, work id) entries, keeping the position
// of the first occurrence and the content of the last.
func dedupe(summaries []work.Summary) []work.Summary {
	out := make([]work.Summary, 0, len(summaries))
	pos := make(map[workKey]int, len(summaries))
	for _, s := range summaries {
		k := workKey{owner: s.OwnerID, id: s.WorkID}
		if i, ok := pos[k]; ok {
			out[i] = s
			continue
		}
		pos[k] = len(out)
		out = append(out, s)
	}
	return out
}

// sortCanonical orders summaries by LastModified descending, then work id
// and owner ascending.
func sortCanonical(summaries []work.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		if a.WorkID != b.WorkID {
			return a.WorkID < b.WorkID
		}
		return a.OwnerID < b.OwnerID
	})
}

// selfKeys returns the distinct normalized self identifiers of s.
func selfKeys(s work.Summary) []extid.Key {
	var keys []extid.Key
	seen := make(map[extid.Key]bool)
	for _, id := range s.Identifiers {
		if !id.IsSelf() {
			continue
		}
		k, ok := extid.Normalize(id)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// strongOnly keeps the keys precise enough for exact grouping.
func strongOnly(keys []extid.Key) []extid.Key {
	var out []extid.Key
	for _, k := range keys {
		if k.Strong() {
			out = append(out, k)
		}
	}
	return out
}

func unionKeys(members []int, perMember [][]extid.Key) []extid.Key {
	seen := make(map[extid.Key]bool)
	keys := []extid.Key{}
	for _, m := range members {
		for _, k := range perMember[m] {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	extid.SortKeys(keys)
	return keys
}

// verify checks that the groups partition the snapshot exactly.
func verify(res *Result, strong [][]extid.Key) error {
	owner := make([]int, len(res.Summaries))
	for i := range owner {
		owner[i] = -1
	}

	for g, grp := range res.Groups {
		if len(grp.Members) == 0 {
			return violation("group %d has no members", g)
		}
		for _, m := range grp.Members {
			if m < 0 || m >= len(res.Summaries) {
				return violation("group %d references summary %d outside snapshot of %d", g, m, len(res.Summaries))
			}
			if owner[m] != -1 {
				return violation("summary %d is in groups %d and %d", m, owner[m], g)
			}
			owner[m] = g
			if len(grp.Members) > 1 && len(strong[m]) == 0 {
				return violation("summary %d has no self identifier but shares group %d", m, g)
			}
		}
	}

	for m, g := range owner {
		if g == -1 {
			return violation("summary %d is in no group", m)
		}
	}
	return nil
}

// Clone returns a deep copy of the result that shares no slices with r.
func (r *Result) Clone() *Result {
	out := &Result{
		Summaries:  make([]work.Summary, len(r.Summaries)),
		Groups:     make([]Group, len(r.Groups)),
		Duplicates: r.Duplicates,
		Excluded:   r.Excluded,
	}
	for i, s := range r.Summaries {
		s.Identifiers = append([]work.ExternalIdentifier(nil), s.Identifiers...)
		out.Summaries[i] = s
	}
	for i, g := range r.Groups {
		out.Groups[i] = Group{
			Members:     append([]int(nil), g.Members...),
			Identifiers: append([]extid.Key{}, g.Identifiers...),
		}
	}
	return out
}
