package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelationship(t *testing.T) {
	tests := []struct {
		in      string
		want    Relationship
		wantErr bool
	}{
		{"", RelSelf, false},
		{"SELF", RelSelf, false},
		{"part-of", RelPartOf, false},
		{"PART_OF", RelPartOf, false},
		{" version_of ", RelVersionOf, false},
		{"funded-by", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRelationship(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		in   string
		want Visibility
	}{
		{"PUBLIC", VisibilityPublic},
		{"limited", VisibilityLimited},
		{"REGISTERED_ONLY", VisibilityLimited},
		{"private", VisibilityPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVisibility(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseVisibility("secret")
	assert.Error(t, err)
}

func TestIsSelf(t *testing.T) {
	assert.True(t, ExternalIdentifier{Relationship: RelSelf}.IsSelf())
	assert.True(t, ExternalIdentifier{}.IsSelf())
	assert.False(t, ExternalIdentifier{Relationship: RelPartOf}.IsSelf())
	assert.False(t, ExternalIdentifier{Relationship: RelVersionOf}.IsSelf())
}

func TestSummaries(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	works := []Work{
		{OwnerID: "o", WorkID: 2, Title: "B", Visibility: VisibilityPrivate, LastModified: modified,
			Identifiers: []ExternalIdentifier{{Type: IDDOI, Value: "10.1/b", Relationship: RelSelf}},
			Venue:       "Journal"},
		{OwnerID: "o", WorkID: 1, Title: "A", Featured: true, Visibility: VisibilityPublic},
	}

	got := Summaries(works)
	require.Len(t, got, 2)
	assert.Equal(t, Summary{
		OwnerID:      "o",
		WorkID:       2,
		Title:        "B",
		Identifiers:  works[0].Identifiers,
		Visibility:   VisibilityPrivate,
		LastModified: modified,
	}, got[0])
	assert.Equal(t, int64(1), got[1].WorkID)
	assert.True(t, got[1].Featured)
}
