// Package extid canonicalizes external identifiers so that different spellings
// of the same identifier compare equal.
package extid

import (
	"strings"

	"github.com/matsen/works/internal/work"
)

// typeAliases maps every accepted spelling (after token normalization) to a
// canonical identifier type.
var typeAliases = map[string]work.IDType{
	"doi":                       work.IDDOI,
	"digital-object-identifier": work.IDDOI,

	"isbn":    work.IDISBN,
	"isbn-10": work.IDISBN,
	"isbn-13": work.IDISBN,
	"isbn10":  work.IDISBN,
	"isbn13":  work.IDISBN,

	"issn":   work.IDISSN,
	"eissn":  work.IDISSN,
	"e-issn": work.IDISSN,
	"pissn":  work.IDISSN,
	"p-issn": work.IDISSN,

	"pmid":      work.IDPMID,
	"pubmed":    work.IDPMID,
	"pubmed-id": work.IDPMID,

	"pmc":   work.IDPMC,
	"pmcid": work.IDPMC,

	"arxiv":    work.IDArXiv,
	"arxiv-id": work.IDArXiv,
	"arxivid":  work.IDArXiv,

	"handle": work.IDHandle,
	"hdl":    work.IDHandle,

	"uri": work.IDURI,
	"url": work.IDURI,

	"eid":    work.IDEID,
	"scopus": work.IDEID,

	"wosuid": work.IDWOSUID,
	"wos":    work.IDWOSUID,
	"isi":    work.IDWOSUID,

	"other-id": work.IDOther,
	"other":    work.IDOther,
}

// ParseType maps a source type spelling to its canonical type.
// Unrecognised spellings return work.IDUnknown.
func ParseType(raw string) work.IDType {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.NewReplacer("_", "-", " ", "-").Replace(token)
	return typeAliases[token]
}

// canonicalType resolves the type of an identifier, preferring the typed
// field and falling back to the raw source spelling.
func canonicalType(id work.ExternalIdentifier) work.IDType {
	if t := ParseType(string(id.Type)); t != work.IDUnknown {
		return t
	}
	return ParseType(id.RawType)
}
