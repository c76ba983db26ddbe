package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDocument(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	require.Len(t, s.Tiers, 4)
	assert.Equal(t, "standard", s.Tiers[1].ID)
	assert.True(t, s.Tiers[1].Popular)
	assert.Equal(t, "85", s.Tiers[1].Price.For(FrequencyYearly))
	assert.Equal(t, "Custom", s.Tiers[3].Price.For(FrequencyMonthly))
	assert.Empty(t, s.Tiers[3].Features)

	assert.Len(t, s.Features, 3)
	assert.Len(t, s.FAQ, 3)
	assert.NotEmpty(t, s.Nav)
	assert.Equal(t, []string{"monthly", "yearly"}, s.PaymentFrequencies)
}

func TestLoad_AuthorPositionsAreSelectable(t *testing.T) {
	s := MustLoad()
	for _, a := range s.Authors {
		assert.Contains(t, s.Positions, a.Position, a.Name)
		assert.Contains(t, s.Teams, a.Team, a.Name)
	}
}

func TestAuthorByName(t *testing.T) {
	s := MustLoad()

	a, ok := s.AuthorByName("Joshua Nwosu")
	require.True(t, ok)
	assert.Equal(t, "Senior Software Engineer", a.Position)
	assert.Equal(t, "Engineering", a.Team)
	assert.Contains(t, a.Image, "avatars.githubusercontent.com")

	_, ok = s.AuthorByName("joshua nwosu")
	assert.False(t, ok)
}

func TestFrequency(t *testing.T) {
	s := MustLoad()
	assert.Equal(t, "yearly", s.Frequency("yearly"))
	assert.Equal(t, "monthly", s.Frequency("weekly"))
	assert.Equal(t, "monthly", s.Frequency(""))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "tiers: [", "content: decode"},
		{"nameless author", "authors:\n  - position: CEO\n", "author without a name"},
		{"duplicate author", "teams: [HR]\nauthors:\n  - {name: A, team: HR}\n  - {name: A, team: HR}\n", "duplicate author"},
		{"unknown team", "teams: [HR]\nauthors:\n  - {name: A, team: Legal}\n", "unknown team"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
