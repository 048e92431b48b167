package conflict

import (
	"strings"
	"testing"
	"time"

	"github.com/matsen/works/internal/work"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestResolve_NewerWins(t *testing.T) {
	older := work.Work{OwnerID: owner, WorkID: 1, Title: "Old", Venue: "Nature", LastModified: base}
	newer := work.Work{OwnerID: owner, WorkID: 1, Title: "New", LastModified: base.Add(time.Hour)}

	tests := []struct {
		name  string
		match WorkMatch
		want  ResolutionAction
	}{
		{"theirs newer", WorkMatch{Ours: older, Theirs: newer}, ActionKeepTheirs},
		{"ours newer", WorkMatch{Ours: newer, Theirs: older}, ActionKeepOurs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Resolve(tt.match)
			if plan.Action != tt.want {
				t.Errorf("expected %s, got %s", tt.want, plan.Action)
			}
			if got := ApplyResolution(tt.match, plan); got.Title != "New" {
				t.Errorf("expected the newer record, got %q", got.Title)
			}
		})
	}
}

func TestResolve_SameTimestamp(t *testing.T) {
	sparse := work.Work{OwnerID: owner, WorkID: 1, Title: "T", LastModified: base}
	full := work.Work{
		OwnerID: owner, WorkID: 1, Title: "T", LastModified: base,
		Authors:     []work.Author{{Name: "Sarah Chen"}},
		Venue:       "Nature",
		Identifiers: []work.ExternalIdentifier{doi("10.1/a")},
	}

	if plan := Resolve(WorkMatch{Ours: sparse, Theirs: full}); plan.Action != ActionKeepTheirs {
		t.Errorf("expected keep_theirs, got %s", plan.Action)
	}
	if plan := Resolve(WorkMatch{Ours: full, Theirs: sparse}); plan.Action != ActionKeepOurs {
		t.Errorf("expected keep_ours, got %s", plan.Action)
	}
	if plan := Resolve(WorkMatch{Ours: sparse, Theirs: sparse}); plan.Action != ActionKeepOurs {
		t.Errorf("expected keep_ours for identical, got %s", plan.Action)
	}
}

func TestResolve_Complementary(t *testing.T) {
	ours := work.Work{
		OwnerID: owner, WorkID: 1, Title: "T", LastModified: base,
		Venue:       "Nature",
		Identifiers: []work.ExternalIdentifier{doi("10.1/A")},
	}
	theirs := work.Work{
		OwnerID: owner, WorkID: 1, Title: "T", LastModified: base,
		Authors:     []work.Author{{Name: "Sarah Chen"}},
		Published:   work.PublicationDate{Year: 2024, Month: 5},
		Identifiers: []work.ExternalIdentifier{doi("10.1/a"), {Type: work.IDPMID, Value: "123", Relationship: work.RelSelf}},
	}

	match := WorkMatch{Ours: ours, Theirs: theirs}
	plan := Resolve(match)
	if plan.Action != ActionMerge {
		t.Fatalf("expected merge, got %s", plan.Action)
	}

	merged := ApplyResolution(match, plan)
	if merged.Venue != "Nature" || len(merged.Authors) != 1 || merged.Published.Month != 5 {
		t.Errorf("merge lost fields: %+v", merged)
	}
	if len(merged.Identifiers) != 2 {
		t.Errorf("expected DOI deduplicated by normalized key plus PMID, got %+v", merged.Identifiers)
	}
}

func TestResolveFile(t *testing.T) {
	content := conflicted(
		lineA,
		"<<<<<<< HEAD",
		lineB,
		"=======",
		lineBNewer,
		lineC,
		">>>>>>> feature",
	)

	works, plans, err := ResolveFile(strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(works) != 3 {
		t.Fatalf("expected 3 works, got %d", len(works))
	}
	wantTitles := []string{"One", "Two (revised)", "Three"}
	for i, w := range works {
		if w.Title != wantTitles[i] {
			t.Errorf("work %d title = %q, want %q", i, w.Title, wantTitles[i])
		}
	}

	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].Action != ActionKeepTheirs || plans[1].Action != ActionAddTheirs {
		t.Errorf("unexpected plans: %v", plans)
	}
}

func TestResolveFile_NoConflicts(t *testing.T) {
	works, plans, err := ResolveFile(strings.NewReader(conflicted(lineA, "", lineB)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(works) != 2 || len(plans) != 0 {
		t.Errorf("expected 2 works and no plans, got %d and %d", len(works), len(plans))
	}
}
