// Package audio provides raw PCM fragment handling: format validation,
// silence generation, concatenation with inter-speaker pauses, and WAV
// container I/O for the final artifact and intermediate segment files.
package audio

import (
	"errors"
	"fmt"
	"time"
)

// Format describes the PCM parameters of a fragment. All fragments
// combined in one run must share a single format.
type Format struct {
	SampleRate int // samples per second, e.g. 24000
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // bits per sample, typically 16
}

// DefaultFormat returns the pipeline's default output format:
// 16-bit mono at 24 kHz, the native rate of the synthesis models.
func DefaultFormat() Format {
	return Format{SampleRate: 24000, Channels: 1, BitDepth: 16}
}

// BytesPerFrame returns the byte width of one frame (all channels).
func (f Format) BytesPerFrame() int {
	return f.BitDepth / 8 * f.Channels
}

// Validate checks that the format parameters are usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.BitDepth != 8 && f.BitDepth != 16 {
		return fmt.Errorf("invalid bit depth %d", f.BitDepth)
	}
	return nil
}

// String renders the format for logs and error messages.
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// Fragment is a buffer of raw PCM samples plus its format descriptor.
type Fragment struct {
	Format Format
	Data   []byte
}

// Frames returns the number of sample frames in the fragment.
func (fr Fragment) Frames() int {
	bpf := fr.Format.BytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return len(fr.Data) / bpf
}

// Duration returns the playback duration of the fragment.
func (fr Fragment) Duration() time.Duration {
	if fr.Format.SampleRate == 0 {
		return 0
	}
	frames := fr.Frames()
	return time.Duration(frames) * time.Second / time.Duration(fr.Format.SampleRate)
}

// Validate checks that the fragment holds sample-aligned data.
func (fr Fragment) Validate() error {
	if err := fr.Format.Validate(); err != nil {
		return err
	}
	if len(fr.Data) == 0 {
		return errors.New("empty fragment")
	}
	if len(fr.Data)%fr.Format.BytesPerFrame() != 0 {
		return fmt.Errorf("fragment length %d is not aligned to %d-byte frames",
			len(fr.Data), fr.Format.BytesPerFrame())
	}
	return nil
}

// Silence generates a silent fragment of the given duration. The frame
// count is derived from the sample rate so concatenation stays
// sample-exact with no drift.
func Silence(d time.Duration, f Format) Fragment {
	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	data := make([]byte, frames*f.BytesPerFrame())
	if f.BitDepth == 8 {
		// 8-bit PCM is unsigned; its zero level is 0x80, not 0x00.
		for i := range data {
			data[i] = 0x80
		}
	}
	return Fragment{Format: f, Data: data}
}
