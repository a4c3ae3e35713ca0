package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/muesli/reflow/truncate"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/config"
	"github.com/scriptcast/scriptcast/internal/script"
	"github.com/scriptcast/scriptcast/internal/synth"
	"github.com/scriptcast/scriptcast/internal/synth/mock"
	"github.com/scriptcast/scriptcast/internal/synth/paddle"
	"github.com/scriptcast/scriptcast/internal/voice"
)

// ErrNoSegments means the script parsed to nothing synthesizable.
var ErrNoSegments = errors.New("no dialogue segments in script")

// ErrAllSegmentsFailed means synthesis produced no audio at all.
var ErrAllSegmentsFailed = errors.New("all segments failed to synthesize")

// Report summarizes one completed (or failed) run.
type Report struct {
	Segments  int
	Succeeded int
	Failed    int
	TimedOut  int
	Chunks    int

	OutputPath string
	OutputSize uint64
	Duration   time.Duration // audio length of the artifact
	Elapsed    time.Duration // wall time of the run
}

// Summary renders the report as a short human-readable line.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d/%d segments synthesized (%d failed, %d timed out), %s of audio, %s written to %s in %s",
		r.Succeeded, r.Segments, r.Failed, r.TimedOut,
		r.Duration.Round(time.Millisecond),
		humanize.Bytes(r.OutputSize),
		r.OutputPath,
		r.Elapsed.Round(time.Millisecond))
}

// Runner wires the whole pipeline together: parse, voice binding,
// concurrent synthesis, assembly, artifact write.
type Runner struct {
	cfg      *config.Config
	registry *voice.Registry
	factory  synth.Factory
	runID    string
}

// NewRunner validates the configuration into a ready-to-run pipeline.
func NewRunner(cfg *config.Config) (*Runner, error) {
	registry, err := cfg.BuildRegistry()
	if err != nil {
		return nil, err
	}
	factory, err := EngineFactory(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		registry: registry,
		factory:  factory,
		runID:    uuid.NewString()[:8],
	}, nil
}

// EngineFactory returns the synthesis engine factory the configuration
// selects.
func EngineFactory(cfg *config.Config) (synth.Factory, error) {
	switch cfg.Synthesis.Engine {
	case "mock":
		format := audio.Format{SampleRate: cfg.Synthesis.SampleRate, Channels: 1, BitDepth: 16}
		delay := cfg.Synthesis.Mock.GenerationDelay.Std()
		rate := cfg.Synthesis.Mock.FailureRate
		return func() (synth.Engine, error) {
			eng := mock.New(format, delay)
			if rate > 0 {
				eng.SetFailureRate(rate)
			}
			return eng, nil
		}, nil
	case "paddle":
		return paddle.Factory(paddle.Options{
			Binary:     cfg.Synthesis.Paddle.Binary,
			Lang:       cfg.Synthesis.Paddle.Lang,
			SampleRate: cfg.Synthesis.SampleRate,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, cfg.Synthesis.Engine)
	}
}

// Run executes the pipeline end to end. The report is returned even on
// failure when enough of the run happened to describe.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	log.Info("Run starting",
		"run_id", r.runID,
		"input", r.cfg.InputFile,
		"output", r.cfg.OutputFile,
		"engine", r.cfg.Synthesis.Engine)

	raw, err := os.ReadFile(r.cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	segments := script.Parse(string(raw))
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSegments, r.cfg.InputFile)
	}
	for _, seg := range segments {
		log.Info(fmt.Sprintf("[%d] %s", seg.Index, seg.Speaker),
			"text", truncate.StringWithTail(seg.Text, 60, "…"))
	}

	for _, seg := range segments {
		profile, err := r.registry.Resolve(seg.Speaker)
		if err != nil {
			return nil, fmt.Errorf("resolving voice for %q: %w", seg.Speaker, err)
		}
		seg.Voice = profile
	}

	orch := NewOrchestrator(r.factory,
		r.cfg.Processing.MaxWorkers,
		r.cfg.Processing.ChunkSize,
		r.cfg.Processing.SegmentTimeout.Std())
	successful, outcomes, err := orch.SynthesizeAll(ctx, segments)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Segments:   len(segments),
		OutputPath: r.cfg.OutputFile,
	}
	for _, res := range outcomes {
		report.Chunks += res.Chunks
		switch res.Status {
		case StatusSucceeded:
			report.Succeeded++
		case StatusTimedOut:
			report.TimedOut++
		default:
			report.Failed++
		}
	}

	if len(successful) == 0 {
		report.Elapsed = time.Since(start)
		return report, ErrAllSegmentsFailed
	}

	fragmentDir, err := r.writeFragments(successful)
	if err != nil {
		log.Warn("Writing intermediate fragments failed", "err", err)
	} else if r.cfg.Processing.CleanupTempFiles {
		defer func() {
			if err := os.RemoveAll(fragmentDir); err != nil {
				log.Warn("Removing fragment directory failed", "dir", fragmentDir, "err", err)
			}
		}()
	} else {
		log.Info("Keeping segment fragments", "dir", fragmentDir)
	}

	entries := make([]audio.Entry, len(successful))
	for i, seg := range successful {
		entries[i] = audio.Entry{Speaker: seg.Speaker, Fragment: *seg.Audio}
	}
	final, err := audio.Assemble(entries, r.cfg.Pause())
	if err != nil {
		return report, fmt.Errorf("assembling audio: %w", err)
	}

	if dir := filepath.Dir(r.cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := audio.WriteFile(r.cfg.OutputFile, final); err != nil {
		return report, fmt.Errorf("writing artifact: %w", err)
	}

	if info, err := os.Stat(r.cfg.OutputFile); err == nil {
		report.OutputSize = uint64(info.Size())
	}
	report.Duration = final.Duration()
	report.Elapsed = time.Since(start)

	log.Info("Run finished", "run_id", r.runID, "report", report.Summary())
	return report, nil
}

// writeFragments stores each successful segment's audio as its own WAV
// in a per-run directory next to the artifact, for inspection when a
// run goes wrong. The caller decides whether the directory survives
// the run.
func (r *Runner) writeFragments(successful []*script.Segment) (string, error) {
	dir := filepath.Join(filepath.Dir(r.cfg.OutputFile), "segments-"+r.runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}
	for _, seg := range successful {
		path := filepath.Join(dir, fmt.Sprintf("segment_%04d.wav", seg.Index))
		if err := audio.WriteFile(path, *seg.Audio); err != nil {
			return dir, fmt.Errorf("writing fragment %d: %w", seg.Index, err)
		}
	}
	log.Debug("Segment fragments written", "dir", dir, "count", len(successful))
	return dir, nil
}
