package extid

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/matsen/works/internal/work"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key is a normalized identifier. Two identifiers refer to the same thing
// iff their keys are equal.
type Key struct {
	Type  work.IDType `json:"type"`
	Value string      `json:"value"`
}

// String renders the key as "type:value".
func (k Key) String() string {
	return string(k.Type) + ":" + k.Value
}

// Strong reports whether the key is precise enough for exact grouping.
// ISSNs name a serial rather than a work, other-ids carry no scheme, and
// ISBNs that do not validate lack edition precision.
func (k Key) Strong() bool {
	switch k.Type {
	case work.IDISSN, work.IDOther, work.IDUnknown:
		return false
	case work.IDISBN:
		return len(k.Value) == 13 && validISBN13(k.Value)
	case work.IDDOI, work.IDPMID, work.IDPMC, work.IDArXiv,
		work.IDHandle, work.IDURI, work.IDEID, work.IDWOSUID:
		return true
	}
	return false
}

// Less orders keys by type, then value.
func (k Key) Less(other Key) bool {
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	return k.Value < other.Value
}

// SortKeys sorts keys in place by type, then value.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// Prefix variants that resolve to the same identifier. Matching is
// case-insensitive and the first match wins, so longer forms come first.
var (
	doiPrefixes = []string{
		"https://dx.doi.org/", "http://dx.doi.org/", "https://doi.org/", "http://doi.org/",
		"dx.doi.org/", "doi.org/", "doi:",
	}
	pmidPrefixes = []string{
		"https://pubmed.ncbi.nlm.nih.gov/", "http://pubmed.ncbi.nlm.nih.gov/",
		"https://www.ncbi.nlm.nih.gov/pubmed/", "http://www.ncbi.nlm.nih.gov/pubmed/",
		"pmid:",
	}
	pmcPrefixes = []string{
		"https://www.ncbi.nlm.nih.gov/pmc/articles/", "http://www.ncbi.nlm.nih.gov/pmc/articles/",
		"https://pmc.ncbi.nlm.nih.gov/articles/", "pmcid:",
	}
	arxivPrefixes = []string{
		"https://arxiv.org/abs/", "http://arxiv.org/abs/", "https://arxiv.org/pdf/", "http://arxiv.org/pdf/",
		"arxiv.org/abs/", "arxiv:",
	}
	handlePrefixes = []string{
		"https://hdl.handle.net/", "http://hdl.handle.net/", "hdl.handle.net/", "hdl:",
	}
	issnPrefixes = []string{"https://portal.issn.org/resource/issn/", "issn:", "issn "}
	isbnPrefixes = []string{
		"isbn-13:", "isbn-10:", "isbn13:", "isbn10:", "isbn:",
		"isbn-13 ", "isbn-10 ", "isbn13 ", "isbn10 ", "isbn ",
	}
	wosPrefixes = []string{"wos:"}
)

var arxivVersion = regexp.MustCompile(`v\d+$`)

// Normalize canonicalizes an identifier. It returns false when the
// identifier's type is unknown or its value is empty after cleaning.
func Normalize(id work.ExternalIdentifier) (Key, bool) {
	t := canonicalType(id)
	v := norm.NFKC.String(strings.TrimSpace(id.Value))

	switch t {
	case work.IDDOI:
		v = normalizeDOI(v)
	case work.IDISBN:
		v = normalizeISBN(v)
	case work.IDISSN:
		v = normalizeISSN(v)
	case work.IDPMID:
		v = normalizePMID(v)
	case work.IDPMC:
		v = normalizePMC(v)
	case work.IDArXiv:
		v = normalizeArXiv(v)
	case work.IDHandle:
		v = fold(trimPrefixFold(v, handlePrefixes))
	case work.IDURI:
		v = normalizeURI(v)
	case work.IDEID:
		v = fold(v)
	case work.IDWOSUID:
		v = strings.ToUpper(trimPrefixFold(v, wosPrefixes))
	case work.IDOther:
		// Case-sensitive, whitespace-trimmed only.
	case work.IDUnknown:
		return Key{}, false
	default:
		return Key{}, false
	}

	v = strings.TrimSpace(v)
	if v == "" {
		return Key{}, false
	}
	return Key{Type: t, Value: v}, true
}

func normalizeDOI(v string) string {
	v = trimPrefixFold(v, doiPrefixes)
	if strings.Contains(v, "%") {
		if unescaped, err := url.PathUnescape(v); err == nil {
			v = unescaped
		}
	}
	return fold(strings.TrimSpace(v))
}

func normalizePMID(v string) string {
	v = strings.Trim(trimPrefixFold(v, pmidPrefixes), "/ ")
	if isDigits(v) {
		v = strings.TrimLeft(v, "0")
		if v == "" {
			return "0"
		}
		return v
	}
	return fold(v)
}

func normalizePMC(v string) string {
	v = fold(strings.Trim(trimPrefixFold(v, pmcPrefixes), "/ "))
	if isDigits(v) {
		return "pmc" + v
	}
	return v
}

func normalizeArXiv(v string) string {
	v = trimPrefixFold(v, arxivPrefixes)
	v = fold(strings.TrimSuffix(strings.TrimSpace(v), ".pdf"))
	return arxivVersion.ReplaceAllString(v, "")
}

func normalizeURI(v string) string {
	v = trimPrefixFold(v, []string{"https://", "http://"})
	host, path, _ := strings.Cut(v, "/")
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if path = strings.TrimRight(path, "/"); path == "" {
		return host
	}
	return host + "/" + path
}

func normalizeISSN(v string) string {
	v = strings.ToUpper(stripSeparators(trimPrefixFold(v, issnPrefixes)))
	if len(v) == 8 {
		return v[:4] + "-" + v[4:]
	}
	return v
}

// normalizeISBN strips separators and converts valid ISBN-10s to ISBN-13 so
// both printings of the same edition compare equal.
func normalizeISBN(v string) string {
	v = strings.ToUpper(stripSeparators(trimPrefixFold(v, isbnPrefixes)))
	if len(v) == 10 && validISBN10(v) {
		return isbn10To13(v)
	}
	return v
}

func validISBN10(v string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := v[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func validISBN13(v string) bool {
	if len(v) != 13 || !isDigits(v) {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		d := int(v[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

func isbn10To13(v string) string {
	body := "978" + v[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}

// fold applies Unicode case folding. A Caser is stateful, so one is built
// per call rather than shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

func trimPrefixFold(s string, prefixes []string) string {
	s = strings.TrimSpace(s)
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '‐' || r == '–' {
			return -1
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
