// Package paddle runs speech synthesis through the PaddleSpeech command
// line. Each call shells out to `paddlespeech tts`, pointing it at a
// temp WAV path, and reads the result back as a raw fragment.
package paddle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/synth"
	"github.com/scriptcast/scriptcast/internal/voice"
)

// Options configures the PaddleSpeech CLI invocation.
type Options struct {
	Binary     string // paddlespeech binary name or path
	Lang       string // language passed to --lang, e.g. "zh"
	SampleRate int    // sample rate the models emit
}

// Engine shells out to the PaddleSpeech CLI. Instances are not safe for
// concurrent use; the pipeline gives each worker its own via Factory.
type Engine struct {
	opts    Options
	binary  string
	tempDir string
}

// New locates the PaddleSpeech binary and prepares a temp directory for
// intermediate chunk files.
func New(opts Options) (*Engine, error) {
	if opts.Binary == "" {
		opts.Binary = "paddlespeech"
	}
	if opts.Lang == "" {
		opts.Lang = "zh"
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = audio.DefaultFormat().SampleRate
	}

	binary, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not found in PATH", synth.ErrEngineUnavailable, opts.Binary)
	}

	tempDir := filepath.Join(os.TempDir(), "scriptcast-paddle")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	log.Debug("PaddleSpeech engine ready", "binary", binary, "lang", opts.Lang)
	return &Engine{opts: opts, binary: binary, tempDir: tempDir}, nil
}

// Factory returns a synth.Factory producing independent engine handles.
func Factory(opts Options) synth.Factory {
	return func() (synth.Engine, error) {
		return New(opts)
	}
}

// Synthesize renders one chunk. The subprocess inherits ctx, so a
// deadline kills the CLI rather than letting it run on in the background.
func (e *Engine) Synthesize(ctx context.Context, text string, profile voice.Profile) (audio.Fragment, error) {
	out := filepath.Join(e.tempDir, "chunk-"+uuid.NewString()+".wav")
	defer os.Remove(out) //nolint:errcheck

	cmd := exec.CommandContext(ctx, e.binary, "tts",
		"--am", profile.AcousticModel,
		"--voc", profile.Vocoder,
		"--lang", e.opts.Lang,
		"--spk_id", strconv.Itoa(profile.SpeakerID),
		"--input", text,
		"--output", out,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return audio.Fragment{}, ctxErr
		}
		log.Debug("PaddleSpeech invocation failed",
			"spk_id", profile.SpeakerID, "output", string(output))
		return audio.Fragment{}, fmt.Errorf("%w: paddlespeech tts: %v", synth.ErrSynthesisFailed, err)
	}

	fragment, err := audio.ReadFile(out)
	if err != nil {
		return audio.Fragment{}, fmt.Errorf("%w: reading engine output: %v", synth.ErrSynthesisFailed, err)
	}
	return fragment, nil
}

// Info implements synth.Engine.
func (e *Engine) Info() synth.Info {
	return synth.Info{
		Name: "paddle",
		Format: audio.Format{
			SampleRate: e.opts.SampleRate,
			Channels:   1,
			BitDepth:   16,
		},
	}
}

// Close implements synth.Engine. Chunk files are removed per call, so
// there is nothing to tear down beyond the directory itself, which is
// shared between handles and left for the OS temp cleaner.
func (e *Engine) Close() error {
	return nil
}
