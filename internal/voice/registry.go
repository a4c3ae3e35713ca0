package voice

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNoCharacters indicates resolution was attempted against a registry
// with no characters and no narrator. This is a configuration error and
// fatal for the run.
var ErrNoCharacters = errors.New("no characters configured")

// Registry is a read-only lookup from speaker labels to voice profiles.
// It is loaded once at startup and safe for concurrent use afterwards.
type Registry struct {
	characters []*Character
	narrator   *Character
}

// NewRegistry builds a registry over the given characters, in registration
// order, with an optional default narrator (nil for none).
func NewRegistry(characters []*Character, narrator *Character) *Registry {
	return &Registry{characters: characters, narrator: narrator}
}

// Characters returns the registered characters in registration order.
func (r *Registry) Characters() []*Character {
	return r.characters
}

// Narrator returns the default narrator, or nil if none is configured.
func (r *Registry) Narrator() *Character {
	return r.narrator
}

// Find returns the character matching the label, or nil. Exact
// name/alias matches take precedence; otherwise aliases are scanned for
// substring containment in either direction, which catches labels
// embedded in surrounding text. The substring pass is ambiguous by
// construction (a short alias can match inside an unrelated label);
// first match in registration order wins and the behavior is kept as-is
// for compatibility with existing configurations.
func (r *Registry) Find(label string) *Character {
	for _, c := range r.characters {
		if c.Matches(label) {
			return c
		}
	}

	lower := strings.ToLower(label)
	for _, c := range r.characters {
		for _, alias := range c.Aliases {
			a := strings.ToLower(alias)
			if strings.Contains(lower, a) || strings.Contains(a, lower) {
				return c
			}
		}
	}
	return nil
}

// Resolve maps a speaker label to a voice profile. Unmatched labels fall
// back to the default narrator, then to the first registered character.
// Resolution fails only when the registry is completely empty.
func (r *Registry) Resolve(label string) (Profile, error) {
	if c := r.Find(label); c != nil {
		log.Debug("Resolved speaker", "label", label, "character", c.Name, "spk_id", c.Voice.SpeakerID)
		return c.Voice, nil
	}
	if r.narrator != nil {
		log.Debug("No character for speaker, using narrator", "label", label)
		return r.narrator.Voice, nil
	}
	if len(r.characters) > 0 {
		log.Warn("No character or narrator for speaker, using first character",
			"label", label, "character", r.characters[0].Name)
		return r.characters[0].Voice, nil
	}
	return Profile{}, ErrNoCharacters
}
