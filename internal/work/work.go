// Package work defines the core domain types for scholarly works.
package work

import "time"

// Work is the full record of a scholarly work as held by a work store.
type Work struct {
	// Identity
	OwnerID string `json:"owner_id"` // Researcher identifier (e.g. an ORCID iD)
	WorkID  int64  `json:"work_id"`  // Store-assigned identifier, unique per owner (ORCID put-code)

	// Metadata
	Title            string   `json:"title"`
	Type             string   `json:"type,omitempty"` // journal-article, book, dataset, ...
	Authors          []Author `json:"authors,omitempty"`
	Venue            string   `json:"venue,omitempty"` // Journal, conference, or publisher
	ShortDescription string   `json:"short_description,omitempty"`
	URL              string   `json:"url,omitempty"`

	// Publication Date
	Published PublicationDate `json:"published"`

	// External Identifiers
	Identifiers []ExternalIdentifier `json:"identifiers,omitempty"`

	// Record state
	Visibility   Visibility `json:"visibility"`
	Featured     bool       `json:"featured,omitempty"`
	LastModified time.Time  `json:"last_modified"`

	// Import Tracking
	Source Source `json:"source"`
}

// Summary is the subset of a Work needed for grouping decisions.
type Summary struct {
	OwnerID      string               `json:"owner_id"`
	WorkID       int64                `json:"work_id"`
	Title        string               `json:"title,omitempty"`
	Identifiers  []ExternalIdentifier `json:"identifiers,omitempty"`
	Visibility   Visibility           `json:"visibility"`
	Featured     bool                 `json:"featured,omitempty"`
	LastModified time.Time            `json:"last_modified"`
}

// Summary projects the work down to its grouping fields.
func (w Work) Summary() Summary {
	return Summary{
		OwnerID:      w.OwnerID,
		WorkID:       w.WorkID,
		Title:        w.Title,
		Identifiers:  w.Identifiers,
		Visibility:   w.Visibility,
		Featured:     w.Featured,
		LastModified: w.LastModified,
	}
}

// Summaries projects a slice of works, preserving order.
func Summaries(works []Work) []Summary {
	out := make([]Summary, len(works))
	for i, w := range works {
		out[i] = w.Summary()
	}
	return out
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// Source tracks which system contributed a work.
type Source struct {
	Type string `json:"type"`          // orcid, manual
	Name string `json:"name,omitempty"` // Human-readable source client name
}
