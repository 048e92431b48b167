package grouping

import (
	"math"
	"sort"
	"time"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
)

// Confidence scoring for grouping suggestions.
const (
	// DefaultFloor is the minimum confidence a suggestion needs by default.
	DefaultFloor = 0.5

	baseConfidence = 0.5  // one shared weak identifier
	typeBonus      = 0.2  // each further identifier type in the evidence
	maxConfidence  = 0.95 // weak evidence never amounts to certainty
)

// SuggestOptions controls suggestion generation.
type SuggestOptions struct {
	// Floor is the minimum confidence to report (inclusive).
	// Zero or negative means DefaultFloor.
	Floor float64

	Logger zerolog.Logger
}

// Suggestion proposes that two groups may describe the same work.
// It is advisory and never changes the groups it refers to.
type Suggestion struct {
	GroupA     int         `json:"group_a"` // Always less than GroupB
	GroupB     int         `json:"group_b"`
	Confidence float64     `json:"confidence"`
	Evidence   []extid.Key `json:"evidence"`
}

type groupPair struct {
	a, b int
}

type pairEvidence struct {
	keys  []extid.Key
	exact bool
}

// Suggest examines pairs of groups for weak-signal overlap: shared part-of
// or version-of identifiers, or shared self identifiers that are too
// imprecise to group on. Pairs that share a strong self identifier are
// never suggested.
//
// Results are ordered by confidence, then by pair recency, both descending.
// A pair's recency is the earlier of its two groups' latest modification
// times, so a pair ranks as recent only when both groups were touched
// recently.
func Suggest(res *Result, opts SuggestOptions) []Suggestion {
	floor := opts.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}

	// Every normalized key of every group, remembering whether the group
	// holds it as a strong self identifier.
	index := make(map[extid.Key][]int)
	strongIn := make(map[extid.Key]map[int]bool)
	for g := range res.Groups {
		for k, strong := range groupSignals(res.Members(g)) {
			index[k] = append(index[k], g)
			if strong {
				if strongIn[k] == nil {
					strongIn[k] = make(map[int]bool)
				}
				strongIn[k][g] = true
			}
		}
	}

	pairs := make(map[groupPair]*pairEvidence)
	for k, groups := range index {
		if len(groups) < 2 {
			continue
		}
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				p := groupPair{a: groups[i], b: groups[j]}
				if p.a > p.b {
					p.a, p.b = p.b, p.a
				}
				ev := pairs[p]
				if ev == nil {
					ev = &pairEvidence{}
					pairs[p] = ev
				}
				if strongIn[k][p.a] && strongIn[k][p.b] {
					ev.exact = true
					continue
				}
				ev.keys = append(ev.keys, k)
			}
		}
	}

	suggestions := make([]Suggestion, 0)
	recency := make(map[groupPair]time.Time)
	excluded := 0
	for p, ev := range pairs {
		if ev.exact {
			excluded++
			continue
		}
		if len(ev.keys) == 0 {
			continue
		}
		c := confidence(ev.keys)
		if c < floor {
			continue
		}
		extid.SortKeys(ev.keys)
		suggestions = append(suggestions, Suggestion{
			GroupA:     p.a,
			GroupB:     p.b,
			Confidence: c,
			Evidence:   ev.keys,
		})
		recency[p] = pairRecency(res, p)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		ra := recency[groupPair{a.GroupA, a.GroupB}]
		rb := recency[groupPair{b.GroupA, b.GroupB}]
		if !ra.Equal(rb) {
			return ra.After(rb)
		}
		if a.GroupA != b.GroupA {
			return a.GroupA < b.GroupA
		}
		return a.GroupB < b.GroupB
	})

	opts.Logger.Debug().
		Int("groups", len(res.Groups)).
		Int("candidate_pairs", len(pairs)).
		Int("exact_pairs", excluded).
		Int("suggestions", len(suggestions)).
		Float64("floor", floor).
		Msg("generated grouping suggestions")

	return suggestions
}

// groupSignals maps each normalized identifier key in the members to
// whether some member holds it as a strong self identifier.
func groupSignals(members []work.Summary) map[extid.Key]bool {
	signals := make(map[extid.Key]bool)
	for _, s := range members {
		for _, id := range s.Identifiers {
			k, ok := extid.Normalize(id)
			if !ok {
				continue
			}
			strong := id.IsSelf() && k.Strong()
			signals[k] = signals[k] || strong
		}
	}
	return signals
}

// confidence scores weak evidence: the base for the first identifier type,
// a bonus for each further independent type, capped below certainty.
func confidence(evidence []extid.Key) float64 {
	types := make(map[work.IDType]bool)
	for _, k := range evidence {
		types[k.Type] = true
	}
	c := baseConfidence + typeBonus*float64(len(types)-1)
	if c > maxConfidence {
		c = maxConfidence
	}
	return math.Round(c*100) / 100
}

// pairRecency is the earlier of the two groups' latest modifications.
func pairRecency(res *Result, p groupPair) time.Time {
	a, b := res.Latest(p.a), res.Latest(p.b)
	if a.Before(b) {
		return a
	}
	return b
}
