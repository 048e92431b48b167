package author

import (
	"testing"

	"github.com/matsen/works/internal/work"
)

const carberryID = "0000-0002-1825-0097"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		input string
		want  Query
	}{
		{"Carberry", Query{Last: "Carberry"}},
		{"Josiah Carberry", Query{First: "Josiah", Last: "Carberry"}},
		{"Josiah S. Carberry", Query{First: "Josiah S.", Last: "Carberry"}},
		{"Carberry, Josiah", Query{First: "Josiah", Last: "Carberry"}},
		{"  Carberry ,  J.  ", Query{First: "J.", Last: "Carberry"}},
		{"Pérez-García, María José", Query{First: "María José", Last: "Pérez-García"}},
		{carberryID, Query{ORCID: carberryID}},
		{"https://orcid.org/" + carberryID, Query{ORCID: carberryID}},
		{"0000-0002-9079-593x", Query{ORCID: "0000-0002-9079-593X"}},
		{"0000-0002-1825", Query{Last: "0000-0002-1825"}},
		{"", Query{}},
		{"   ", Query{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseQuery(tt.input); got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryMatches_CreditNames(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		credit string
		want   bool
	}{
		{"surname only", "Carberry", "Josiah S. Carberry", true},
		{"surname case", "carberry", "Josiah Carberry", true},
		{"full name", "Josiah Carberry", "Josiah Carberry", true},
		{"given name prefix", "Jos Carberry", "Josiah Carberry", true},
		{"comma credit name", "Josiah Carberry", "Carberry, Josiah", true},
		{"credit initials", "Josiah Carberry", "J. S. Carberry", true},
		{"query initial", "J. Carberry", "Josiah Carberry", true},
		{"middle name checked", "Josiah T. Carberry", "Josiah S. Carberry", false},
		{"query longer than credit", "Josiah S. Carberry", "Josiah Carberry", false},
		{"wrong given name", "Frederick Carberry", "Josiah Carberry", false},
		{"surname is not a prefix match", "Carb", "Josiah Carberry", false},
		{"given name is not a surname", "Josiah", "Josiah Carberry", false},
		{"accents ignored", "Maria Jose Perez-Garcia", "María José Pérez-García", true},
		{"accented query", "Zoë Müller", "Zoe Muller", true},
		{"hyphenated given names", "Jean Dupont", "Jean-Luc Dupont", true},
		{"empty query", "", "Josiah Carberry", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.query)
			if got := q.Matches(work.Author{Name: tt.credit}); got != tt.want {
				t.Errorf("%q matching %q = %v, want %v", tt.query, tt.credit, got, tt.want)
			}
		})
	}
}

func TestQueryMatches_ORCID(t *testing.T) {
	withID := work.Author{Name: "J. Carberry", ORCID: carberryID}
	withoutID := work.Author{Name: "Josiah Carberry"}

	tests := []struct {
		name   string
		query  string
		author work.Author
		want   bool
	}{
		{"bare iD", carberryID, withID, true},
		{"iD URL", "https://orcid.org/" + carberryID, withID, true},
		{"different iD", "0000-0001-5109-3700", withID, false},
		{"contributor without iD", carberryID, withoutID, false},
		{"name still matches", "Carberry", withID, true},
		{"stored as URL", carberryID, work.Author{Name: "x", ORCID: "https://orcid.org/" + carberryID}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuery(tt.query).Matches(tt.author); got != tt.want {
				t.Errorf("%q matching %+v = %v, want %v", tt.query, tt.author, got, tt.want)
			}
		})
	}
}

func TestAllMatch(t *testing.T) {
	contributors := []work.Author{
		{Name: "Josiah S. Carberry", ORCID: carberryID},
		{Name: "Pérez-García, María José"},
	}

	tests := []struct {
		name    string
		queries []string
		want    bool
	}{
		{"no queries", nil, true},
		{"one name", []string{"Carberry"}, true},
		{"both contributors", []string{"Carberry", "Perez-Garcia"}, true},
		{"iD and name", []string{carberryID, "María Pérez-García"}, true},
		{"one missing", []string{"Carberry", "Matsen"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := make([]Query, len(tt.queries))
			for i, s := range tt.queries {
				queries[i] = ParseQuery(s)
			}
			if got := AllMatch(queries, contributors); got != tt.want {
				t.Errorf("AllMatch(%v) = %v, want %v", tt.queries, got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	works := []work.Work{
		{WorkID: 1, Authors: []work.Author{{Name: "Josiah Carberry", ORCID: carberryID}}},
		{WorkID: 2, Authors: []work.Author{{Name: "Frederick A. Matsen"}}},
		{WorkID: 3, Authors: []work.Author{{Name: "J. Carberry"}, {Name: "F. Matsen"}}},
		{WorkID: 4},
	}

	tests := []struct {
		name    string
		queries []Query
		want    []int64
	}{
		{"no filter", nil, []int64{1, 2, 3, 4}},
		{"by surname", []Query{ParseQuery("Carberry")}, []int64{1, 3}},
		{"by iD", []Query{ParseQuery(carberryID)}, []int64{1}},
		{"both required", []Query{ParseQuery("Carberry"), ParseQuery("Frederick Matsen")}, []int64{3}},
		{"nobody", []Query{ParseQuery("Nobody")}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(works, tt.queries)
			ids := make([]int64, len(got))
			for i, w := range got {
				ids[i] = w.WorkID
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("Filter = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("Filter = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}
