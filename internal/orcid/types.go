package orcid

import (
	"strconv"
	"strings"
	"time"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
)

// The types below mirror the ORCID v3.0 JSON message schema. Only the
// fields the works store needs are declared.

type stringValue struct {
	Value string `json:"value"`
}

type dateValue struct {
	Value int64 `json:"value"` // Milliseconds since the epoch
}

type fuzzyDate struct {
	Year  *stringValue `json:"year"`
	Month *stringValue `json:"month"`
	Day   *stringValue `json:"day"`
}

type workTitle struct {
	Title *stringValue `json:"title"`
}

type externalID struct {
	Type         string       `json:"external-id-type"`
	Value        string       `json:"external-id-value"`
	Normalized   *stringValue `json:"external-id-normalized"`
	URL          *stringValue `json:"external-id-url"`
	Relationship string       `json:"external-id-relationship"`
}

type externalIDs struct {
	ExternalID []externalID `json:"external-id"`
}

type source struct {
	SourceName *stringValue `json:"source-name"`
}

type contributorAttributes struct {
	Sequence string `json:"contributor-sequence"`
	Role     string `json:"contributor-role"`
}

type contributorORCID struct {
	Path string `json:"path"`
}

type contributor struct {
	ORCID      *contributorORCID      `json:"contributor-orcid"`
	CreditName *stringValue           `json:"credit-name"`
	Attributes *contributorAttributes `json:"contributor-attributes"`
}

type contributors struct {
	Contributor []contributor `json:"contributor"`
}

// workSummary is one entry of a works group.
type workSummary struct {
	PutCode              int64        `json:"put-code"`
	LastModifiedDate     *dateValue   `json:"last-modified-date"`
	Source               *source      `json:"source"`
	Title                *workTitle   `json:"title"`
	ExternalIDs          *externalIDs `json:"external-ids"`
	URL                  *stringValue `json:"url"`
	Type                 string       `json:"type"`
	PublicationDate      *fuzzyDate   `json:"publication-date"`
	JournalTitle         *stringValue `json:"journal-title"`
	Visibility           string       `json:"visibility"`
	FeaturedDisplayIndex int          `json:"featured-display-index"`
}

type worksGroup struct {
	WorkSummary []workSummary `json:"work-summary"`
}

// worksResponse is the body of GET /{orcid}/works.
type worksResponse struct {
	Group []worksGroup `json:"group"`
}

// fullWork is the body of GET /{orcid}/work/{put-code}.
type fullWork struct {
	workSummary
	ShortDescription string        `json:"short-description"`
	Contributors     *contributors `json:"contributors"`
}

type bulkError struct {
	ResponseCode     int    `json:"response-code"`
	DeveloperMessage string `json:"developer-message"`
	ErrorCode        int    `json:"error-code"`
}

type bulkItem struct {
	Work  *fullWork  `json:"work"`
	Error *bulkError `json:"error"`
}

// bulkResponse is the body of GET /{orcid}/works/{put-codes}.
type bulkResponse struct {
	Bulk []bulkItem `json:"bulk"`
}

func (v *stringValue) get() string {
	if v == nil {
		return ""
	}
	return v.Value
}

func (d *fuzzyDate) toPublicationDate() work.PublicationDate {
	if d == nil {
		return work.PublicationDate{}
	}
	return work.PublicationDate{
		Year:  atoi(d.Year.get()),
		Month: atoi(d.Month.get()),
		Day:   atoi(d.Day.get()),
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func toIdentifiers(ids *externalIDs) []work.ExternalIdentifier {
	if ids == nil || len(ids.ExternalID) == 0 {
		return nil
	}
	out := make([]work.ExternalIdentifier, 0, len(ids.ExternalID))
	for _, id := range ids.ExternalID {
		rel, err := work.ParseRelationship(id.Relationship)
		if err != nil {
			rel = work.RelSelf
		}
		typ := extid.ParseType(id.Type)
		ei := work.ExternalIdentifier{
			Type:         typ,
			Value:        id.Value,
			Relationship: rel,
		}
		if string(typ) != id.Type {
			ei.RawType = id.Type
		}
		out = append(out, ei)
	}
	return out
}

func toVisibility(s string) work.Visibility {
	v, err := work.ParseVisibility(s)
	if err != nil {
		// Unknown levels are never shown publicly.
		return work.VisibilityPrivate
	}
	return v
}

// toWork maps a summary onto a work record owned by ownerID.
func (s *workSummary) toWork(ownerID string) work.Work {
	w := work.Work{
		OwnerID:     ownerID,
		WorkID:      s.PutCode,
		Type:        s.Type,
		Venue:       s.JournalTitle.get(),
		URL:         s.URL.get(),
		Published:   s.PublicationDate.toPublicationDate(),
		Identifiers: toIdentifiers(s.ExternalIDs),
		Visibility:  toVisibility(s.Visibility),
		Featured:    s.FeaturedDisplayIndex > 0,
		Source:      work.Source{Type: "orcid"},
	}
	if s.Title != nil {
		w.Title = s.Title.Title.get()
	}
	if s.Source != nil {
		w.Source.Name = s.Source.SourceName.get()
	}
	if s.LastModifiedDate != nil {
		w.LastModified = time.UnixMilli(s.LastModifiedDate.Value).UTC()
	}
	return w
}

func (f *fullWork) toWork(ownerID string) work.Work {
	w := f.workSummary.toWork(ownerID)
	w.ShortDescription = f.ShortDescription
	if f.Contributors != nil {
		for _, c := range f.Contributors.Contributor {
			a := work.Author{Name: c.CreditName.get()}
			if c.ORCID != nil {
				a.ORCID = c.ORCID.Path
			}
			if c.Attributes != nil {
				a.Role = c.Attributes.Role
			}
			w.Authors = append(w.Authors, a)
		}
	}
	return w
}
