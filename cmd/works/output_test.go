package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/works/internal/bulk"
	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/orcid"
	"github.com/matsen/works/internal/work"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("getting work 7: %w", work.ErrNotFound), ExitNotFound},
		{"orcid not found", fmt.Errorf("%w: %w", work.ErrNotFound, orcid.ErrNotFound), ExitNotFound},
		{"invariant", fmt.Errorf("grouping: %w", &grouping.InvariantViolation{Reason: "x"}), ExitInvariant},
		{"too many", fmt.Errorf("%w: 101 entries", bulk.ErrTooManyRequested), ExitDataError},
		{"invalid id", orcid.ErrInvalidID, ExitDataError},
		{"auth", orcid.ErrAuthError, ExitORCIDAuthError},
		{"rate limited", orcid.ErrRateLimited, ExitORCIDAPIError},
		{"api error", &orcid.APIError{StatusCode: 500}, ExitORCIDAPIError},
		{"other", errors.New("disk full"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"ünïcödé títle", 8, "ünïcö..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		date work.PublicationDate
		want string
	}{
		{work.PublicationDate{}, "n.d."},
		{work.PublicationDate{Year: 2024}, "2024"},
		{work.PublicationDate{Year: 2024, Month: 3}, "2024-03"},
		{work.PublicationDate{Year: 2024, Month: 3, Day: 9}, "2024-03-09"},
	}

	for _, tt := range tests {
		if got := formatDate(tt.date); got != tt.want {
			t.Errorf("formatDate(%+v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestFormatIdentifiers(t *testing.T) {
	ids := []work.ExternalIdentifier{
		{Type: work.IDDOI, Value: "10.1/a", Relationship: work.RelSelf},
		{Type: work.IDISSN, Value: "0378-5955", Relationship: work.RelPartOf},
		{RawType: "rrid", Value: "AB_1"},
	}
	want := "doi:10.1/a, issn:0378-5955 (part-of), rrid:AB_1"
	if got := formatIdentifiers(ids); got != want {
		t.Errorf("formatIdentifiers() = %q, want %q", got, want)
	}
}

func TestNormalizeKey(t *testing.T) {
	for _, in := range []string{"suggestion-floor", "suggestion_floor", "Suggestion_Floor"} {
		if got := normalizeKey(in); got != "suggestion-floor" {
			t.Errorf("normalizeKey(%q) = %q", in, got)
		}
	}
}

func TestResolveStoreKind(t *testing.T) {
	tests := []struct {
		name string
		flag string
		cfg  *config.Config
		want string
	}{
		{"no repository", "", nil, config.StoreLocal},
		{"repository default", "", &config.Config{}, config.StoreLocal},
		{"repository orcid", "", &config.Config{Store: config.StoreORCID}, config.StoreORCID},
		{"flag overrides repository", config.StoreLocal, &config.Config{Store: config.StoreORCID}, config.StoreLocal},
		{"flag without repository", config.StoreORCID, nil, config.StoreORCID},
	}

	saved := storeFlag
	defer func() { storeFlag = saved }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storeFlag = tt.flag
			if got := resolveStoreKind(tt.cfg); got != tt.want {
				t.Errorf("resolveStoreKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
