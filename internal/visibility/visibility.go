// Package visibility provides the public-only and featured-work filters.
// Both are stateless and preserve input order.
package visibility

import "github.com/matsen/works/internal/work"

// IsPublic reports whether a summary may be shown to anonymous readers.
func IsPublic(s work.Summary) bool {
	return s.Visibility == work.VisibilityPublic
}

// PublicOnly returns the public summaries in input order. Applying it to
// its own output is a no-op.
func PublicOnly(summaries []work.Summary) []work.Summary {
	out := make([]work.Summary, 0, len(summaries))
	for _, s := range summaries {
		if IsPublic(s) {
			out = append(out, s)
		}
	}
	return out
}

// PublicWorks is PublicOnly for full work records.
func PublicWorks(works []work.Work) []work.Work {
	out := make([]work.Work, 0, len(works))
	for _, w := range works {
		if w.Visibility == work.VisibilityPublic {
			out = append(out, w)
		}
	}
	return out
}

// SelectFeatured returns the featured summaries in input order.
func SelectFeatured(summaries []work.Summary) []work.Summary {
	out := make([]work.Summary, 0)
	for _, s := range summaries {
		if s.Featured {
			out = append(out, s)
		}
	}
	return out
}

// SelectFeaturedWorks returns the featured works in input order.
func SelectFeaturedWorks(works []work.Work) []work.Work {
	out := make([]work.Work, 0)
	for _, w := range works {
		if w.Featured {
			out = append(out, w)
		}
	}
	return out
}
