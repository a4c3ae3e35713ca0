package audio

import (
	"errors"
	"fmt"
	"time"
)

// Assembly errors.
var (
	// ErrFormatMismatch indicates fragments with differing PCM formats
	// were handed to the assembler. Mixed formats cannot be concatenated
	// safely, so this aborts the run.
	ErrFormatMismatch = errors.New("audio fragments have mismatched formats")

	// ErrNothingToAssemble indicates an empty input set.
	ErrNothingToAssemble = errors.New("no audio fragments to assemble")
)

// Entry pairs a synthesized fragment with the speaker that produced it.
// Entries must already be in final output order.
type Entry struct {
	Speaker  string
	Fragment Fragment
}

// Assemble concatenates fragments in the given order into one fragment,
// inserting a silence of pause duration whenever the speaker changes
// between consecutive entries. The first entry's format is the reference;
// every other fragment must match it exactly. Concatenation is a raw
// sample append — no crossfade, no resampling.
func Assemble(entries []Entry, pause time.Duration) (Fragment, error) {
	if len(entries) == 0 {
		return Fragment{}, ErrNothingToAssemble
	}

	ref := entries[0].Fragment.Format
	if err := ref.Validate(); err != nil {
		return Fragment{}, fmt.Errorf("assemble: %w", err)
	}

	var silence Fragment
	if pause > 0 {
		silence = Silence(pause, ref)
	}

	total := 0
	for i, e := range entries {
		if e.Fragment.Format != ref {
			return Fragment{}, fmt.Errorf("%w: fragment %d is %s, expected %s",
				ErrFormatMismatch, i, e.Fragment.Format, ref)
		}
		total += len(e.Fragment.Data)
		if i > 0 && e.Speaker != entries[i-1].Speaker {
			total += len(silence.Data)
		}
	}

	out := Fragment{Format: ref, Data: make([]byte, 0, total)}
	for i, e := range entries {
		if i > 0 && e.Speaker != entries[i-1].Speaker {
			out.Data = append(out.Data, silence.Data...)
		}
		out.Data = append(out.Data, e.Fragment.Data...)
	}
	return out, nil
}
