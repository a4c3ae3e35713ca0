package paddle

import (
	"errors"
	"testing"

	"github.com/scriptcast/scriptcast/internal/synth"
)

func TestNewMissingBinary(t *testing.T) {
	_, err := New(Options{Binary: "definitely-not-a-real-binary-xyz"})
	if !errors.Is(err, synth.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestInfoDefaults(t *testing.T) {
	e := Engine{opts: Options{SampleRate: 24000}}
	info := e.Info()
	if info.Name != "paddle" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Format.SampleRate != 24000 || info.Format.Channels != 1 || info.Format.BitDepth != 16 {
		t.Errorf("Format = %v", info.Format)
	}
}
