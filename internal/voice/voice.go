// Package voice holds character voice definitions and resolves speaker
// labels from a dialogue script to the voice profile that should read them.
package voice

import (
	"strings"
)

// Profile identifies exactly one synthesizable voice: the acoustic model,
// the vocoder, and the speaker embedding inside a multi-speaker model.
// Profiles are immutable once loaded.
type Profile struct {
	AcousticModel string `yaml:"am"`
	Vocoder       string `yaml:"voc"`
	SpeakerID     int    `yaml:"spk_id"`
	Gender        string `yaml:"-"`
	Description   string `yaml:"-"`
}

// Character is a named voice with its aliases. Names are unique within a
// registry; aliases may overlap between characters, in which case the
// first registered character wins a lookup.
type Character struct {
	Name        string
	Aliases     []string
	Gender      string
	Description string
	Voice       Profile

	// names holds the lowercased name and aliases for exact matching.
	names map[string]struct{}
}

// NewCharacter builds a character with its lookup set prepared.
func NewCharacter(name string, aliases []string, gender string, profile Profile, description string) *Character {
	c := &Character{
		Name:        name,
		Aliases:     aliases,
		Gender:      gender,
		Description: description,
		Voice:       profile,
		names:       make(map[string]struct{}, len(aliases)+1),
	}
	c.names[strings.ToLower(name)] = struct{}{}
	for _, a := range aliases {
		c.names[strings.ToLower(a)] = struct{}{}
	}
	return c
}

// Matches reports whether label equals the character's name or one of its
// aliases, case-insensitively.
func (c *Character) Matches(label string) bool {
	_, ok := c.names[strings.ToLower(label)]
	return ok
}
