// Package script turns a dialogue script into ordered, speaker-attributed
// segments and slices segment text into length-bounded synthesis chunks.
package script

import (
	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/voice"
)

// NarratorSpeaker is the speaker attributed to text that appears before
// the first labeled line of a script.
const NarratorSpeaker = "Narrator"

// Segment is one speaker-attributed unit of dialogue. Index is assigned
// at parse time, is contiguous from zero in document order, and is the
// reassembly key for the final audio: neither Index nor Speaker change
// after creation. Voice is bound after parsing, Audio after synthesis.
type Segment struct {
	Index   int
	Speaker string
	Text    string

	Voice voice.Profile
	Audio *audio.Fragment
}
