package generator

import (
	"errors"
	"fmt"
)

// Platform identifies a social channel. Values are lowercase and matched exactly.
type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	LinkedIn  Platform = "linkedin"
	TikTok    Platform = "tiktok"
	WhatsApp  Platform = "whatsapp"
)

// Profile holds the generation limits for one platform.
type Profile struct {
	Platform       Platform
	CharacterLimit int
	// Creativity is passed to the model as sampling temperature, in [0,1].
	Creativity float64
}

// DefaultProfiles returns the built-in limits for every supported platform.
func DefaultProfiles() []Profile {
	return []Profile{
		{Platform: Facebook, CharacterLimit: 63206, Creativity: 0.7},
		{Platform: Instagram, CharacterLimit: 2200, Creativity: 0.8},
		{Platform: LinkedIn, CharacterLimit: 3000, Creativity: 0.5},
		{Platform: TikTok, CharacterLimit: 4000, Creativity: 0.9},
		{Platform: WhatsApp, CharacterLimit: 4000, Creativity: 0.6},
	}
}

// ProfileTable is the read-only lookup of platform profiles. It is built once
// and shared by every component that needs limits or creativity.
type ProfileTable struct {
	profiles map[Platform]Profile
	order    []Platform
}

// NewProfileTable validates the profiles and indexes them by platform.
func NewProfileTable(profiles ...Profile) (*ProfileTable, error) {
	if len(profiles) == 0 {
		return nil, errors.New("profile table needs at least one platform")
	}
	t := &ProfileTable{profiles: make(map[Platform]Profile, len(profiles))}
	for _, p := range profiles {
		if p.Platform == "" {
			return nil, errors.New("profile without platform id")
		}
		if _, dup := t.profiles[p.Platform]; dup {
			return nil, fmt.Errorf("duplicate profile for %s", p.Platform)
		}
		if p.CharacterLimit <= 0 {
			return nil, fmt.Errorf("profile %s: character limit must be positive", p.Platform)
		}
		if p.Creativity < 0 || p.Creativity > 1 {
			return nil, fmt.Errorf("profile %s: creativity %.2f outside [0,1]", p.Platform, p.Creativity)
		}
		t.profiles[p.Platform] = p
		t.order = append(t.order, p.Platform)
	}
	return t, nil
}

// DefaultProfileTable returns a table over DefaultProfiles.
func DefaultProfileTable() *ProfileTable {
	t, err := NewProfileTable(DefaultProfiles()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup resolves a raw platform id. Unknown ids yield ErrUnsupportedPlatform.
func (t *ProfileTable) Lookup(id string) (Profile, error) {
	p, ok := t.profiles[Platform(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, id)
	}
	return p, nil
}

// Platforms lists the known platforms in table order.
func (t *ProfileTable) Platforms() []Platform {
	out := make([]Platform, len(t.order))
	copy(out, t.order)
	return out
}
