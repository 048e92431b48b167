package work

import (
	"fmt"
	"strings"
)

// IDType is the canonical type of an external identifier.
type IDType string

// Known identifier types. The set is closed: normalization switches over
// every value, and unrecognised input types map to IDUnknown.
const (
	IDUnknown IDType = ""
	IDDOI     IDType = "doi"
	IDISBN    IDType = "isbn"
	IDISSN    IDType = "issn"
	IDPMID    IDType = "pmid"
	IDPMC     IDType = "pmc"
	IDArXiv   IDType = "arxiv"
	IDHandle  IDType = "handle"
	IDURI     IDType = "uri"
	IDEID     IDType = "eid"
	IDWOSUID  IDType = "wosuid"
	IDOther   IDType = "other-id"
)

// IDTypes lists every known identifier type in canonical order.
var IDTypes = []IDType{
	IDDOI, IDISBN, IDISSN, IDPMID, IDPMC, IDArXiv,
	IDHandle, IDURI, IDEID, IDWOSUID, IDOther,
}

// Relationship describes how an identifier relates to the work carrying it.
type Relationship string

const (
	RelSelf      Relationship = "self"
	RelPartOf    Relationship = "part-of"
	RelVersionOf Relationship = "version-of"
)

// ParseRelationship accepts the ORCID spellings (self, part-of, version-of)
// in any case, with underscores or hyphens. Empty input means self.
func ParseRelationship(s string) (Relationship, error) {
	switch normalizeToken(s) {
	case "", "self":
		return RelSelf, nil
	case "part-of":
		return RelPartOf, nil
	case "version-of":
		return RelVersionOf, nil
	}
	return "", fmt.Errorf("unknown relationship: %q", s)
}

// Visibility is the privacy level of a work.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityLimited Visibility = "limited"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility accepts public, limited (also registered-only) and private.
func ParseVisibility(s string) (Visibility, error) {
	switch normalizeToken(s) {
	case "public":
		return VisibilityPublic, nil
	case "limited", "registered-only":
		return VisibilityLimited, nil
	case "private":
		return VisibilityPrivate, nil
	}
	return "", fmt.Errorf("unknown visibility: %q", s)
}

// ExternalIdentifier is a (type, value) pair asserted about a work.
type ExternalIdentifier struct {
	Type         IDType       `json:"type"`
	RawType      string       `json:"raw_type,omitempty"` // Type as supplied by the source, if it differs
	Value        string       `json:"value"`
	Relationship Relationship `json:"relationship"`
}

// IsSelf reports whether the identifier names the work itself.
// An empty relationship is treated as self.
func (e ExternalIdentifier) IsSelf() bool {
	return e.Relationship == RelSelf || e.Relationship == ""
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
