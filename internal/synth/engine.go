// Package synth defines the boundary to the external speech-synthesis
// capability. An Engine turns one chunk of text plus a voice profile into
// one raw audio fragment; everything upstream treats it as opaque.
package synth

import (
	"context"
	"errors"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/voice"
)

// Engine errors.
var (
	// ErrSynthesisFailed indicates the engine could not produce audio
	// for a chunk. Failures are isolated per segment and never abort
	// the batch.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrEngineUnavailable indicates the engine's external dependency
	// (binary, model) could not be found or started.
	ErrEngineUnavailable = errors.New("synthesis engine unavailable")
)

// Engine converts text to PCM audio. Implementations are not required
// to be safe for concurrent use: callers give each worker its own
// instance via a Factory.
type Engine interface {
	// Synthesize renders text with the given voice. It honors ctx
	// cancellation and deadline; on deadline expiry it returns the
	// context error.
	Synthesize(ctx context.Context, text string, profile voice.Profile) (audio.Fragment, error)

	// Info describes the engine and its output format.
	Info() Info

	// Close releases any resources held by the engine.
	Close() error
}

// Info describes an engine's identity and output format.
type Info struct {
	Name   string
	Format audio.Format
}

// Factory constructs a fresh engine handle. The orchestrator calls it
// once per worker so no handle is ever shared across goroutines.
type Factory func() (Engine, error)
