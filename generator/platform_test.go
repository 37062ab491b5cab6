package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfileTableLookup(t *testing.T) {
	table := DefaultProfileTable()

	tests := []struct {
		id         string
		limit      int
		creativity float64
	}{
		{"facebook", 63206, 0.7},
		{"instagram", 2200, 0.8},
		{"linkedin", 3000, 0.5},
		{"tiktok", 4000, 0.9},
		{"whatsapp", 4000, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := table.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, Platform(tt.id), p.Platform)
			assert.Equal(t, tt.limit, p.CharacterLimit)
			assert.InDelta(t, tt.creativity, p.Creativity, 1e-9)
		})
	}
	assert.Len(t, table.Platforms(), 5)
}

func TestLookupIsExactMatch(t *testing.T) {
	table := DefaultProfileTable()
	for _, id := range []string{"Facebook", " instagram", "fb", "bogus", ""} {
		_, err := table.Lookup(id)
		assert.True(t, errors.Is(err, ErrUnsupportedPlatform), "id %q", id)
	}
}

func TestNewProfileTableValidation(t *testing.T) {
	_, err := NewProfileTable()
	assert.Error(t, err)

	_, err = NewProfileTable(Profile{Platform: Facebook, CharacterLimit: 0, Creativity: 0.5})
	assert.Error(t, err)

	_, err = NewProfileTable(Profile{Platform: Facebook, CharacterLimit: 10, Creativity: 1.5})
	assert.Error(t, err)

	_, err = NewProfileTable(
		Profile{Platform: Facebook, CharacterLimit: 10, Creativity: 0.5},
		Profile{Platform: Facebook, CharacterLimit: 20, Creativity: 0.5},
	)
	assert.Error(t, err)

	table, err := NewProfileTable(Profile{Platform: "mastodon", CharacterLimit: 500, Creativity: 0.4})
	require.NoError(t, err)
	p, err := table.Lookup("mastodon")
	require.NoError(t, err)
	assert.Equal(t, 500, p.CharacterLimit)
}
