package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
input_file: script.txt
output_file: out/dialogue.wav

characters:
  - name: "娜奥米"
    aliases: ["Naomi"]
    gender: female
    voice_profile:
      am: fastspeech2_aishell3
      voc: hifigan_aishell3
      spk_id: 12
  - name: "基翁"
    aliases: ["Keon"]
    gender: male
    voice_profile:
      spk_id: 7

default_narrator:
  gender: neutral
  voice_profile:
    spk_id: 0

processing:
  max_workers: 3
  chunk_size: 150
  pause_between_speakers_ms: 250
  segment_timeout: 90s

synthesis:
  engine: mock
  sample_rate: 24000
  mock:
    failure_rate: 0.25
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.InputFile != "script.txt" {
		t.Errorf("InputFile = %q", cfg.InputFile)
	}
	if got := len(cfg.Characters); got != 2 {
		t.Fatalf("len(Characters) = %d, want 2", got)
	}
	if cfg.Characters[0].Voice.SpeakerID != 12 {
		t.Errorf("speaker id = %d, want 12", cfg.Characters[0].Voice.SpeakerID)
	}
	if cfg.Processing.MaxWorkers != 3 {
		t.Errorf("MaxWorkers = %d, want 3", cfg.Processing.MaxWorkers)
	}
	if got := cfg.Processing.SegmentTimeout.Std(); got != 90*time.Second {
		t.Errorf("SegmentTimeout = %v, want 90s", got)
	}
	if got := cfg.Pause(); got != 250*time.Millisecond {
		t.Errorf("Pause = %v, want 250ms", got)
	}
	if cfg.DefaultNarrator == nil {
		t.Fatal("DefaultNarrator is nil")
	}
	if got := cfg.Synthesis.Mock.FailureRate; got != 0.25 {
		t.Errorf("Mock.FailureRate = %g, want 0.25", got)
	}
}

func TestLoadDefaultsSurviveOmission(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
input_file: a.txt
output_file: b.wav
characters:
  - name: Solo
    voice_profile: {spk_id: 1}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Processing.ChunkSize != 200 {
		t.Errorf("ChunkSize = %d, want default 200", cfg.Processing.ChunkSize)
	}
	if cfg.Processing.PauseBetweenSpeakersMS != 300 {
		t.Errorf("Pause = %d, want default 300", cfg.Processing.PauseBetweenSpeakersMS)
	}
	if got := cfg.Processing.SegmentTimeout.Std(); got != 2*time.Minute {
		t.Errorf("SegmentTimeout = %v, want default 2m", got)
	}
	if cfg.Synthesis.Engine != "paddle" {
		t.Errorf("Engine = %q, want default paddle", cfg.Synthesis.Engine)
	}
	if !cfg.Processing.CleanupTempFiles {
		t.Error("CleanupTempFiles should default to true")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCRIPTCAST_MAX_WORKERS", "5")
	t.Setenv("SCRIPTCAST_SEGMENT_TIMEOUT", "45s")
	t.Setenv("SCRIPTCAST_ENGINE", "mock")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Processing.MaxWorkers != 5 {
		t.Errorf("MaxWorkers = %d, want env override 5", cfg.Processing.MaxWorkers)
	}
	if got := cfg.Processing.SegmentTimeout.Std(); got != 45*time.Second {
		t.Errorf("SegmentTimeout = %v, want env override 45s", got)
	}
	if cfg.Synthesis.Engine != "mock" {
		t.Errorf("Engine = %q, want mock", cfg.Synthesis.Engine)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.InputFile = "in.txt"
		cfg.OutputFile = "out.wav"
		cfg.Characters = []Character{{Name: "A"}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.InputFile = "" }},
		{"missing output", func(c *Config) { c.OutputFile = "" }},
		{"empty character name", func(c *Config) { c.Characters = []Character{{}} }},
		{"duplicate character", func(c *Config) {
			c.Characters = []Character{{Name: "A"}, {Name: "A"}}
		}},
		{"zero workers", func(c *Config) { c.Processing.MaxWorkers = 0 }},
		{"too many workers", func(c *Config) { c.Processing.MaxWorkers = 100 }},
		{"chunk too small", func(c *Config) { c.Processing.ChunkSize = 5 }},
		{"negative pause", func(c *Config) { c.Processing.PauseBetweenSpeakersMS = -1 }},
		{"timeout too short", func(c *Config) { c.Processing.SegmentTimeout = Duration(100 * time.Millisecond) }},
		{"unknown engine", func(c *Config) { c.Synthesis.Engine = "espeak" }},
		{"failure rate out of range", func(c *Config) { c.Synthesis.Mock.FailureRate = 1.5 }},
		{"odd sample rate", func(c *Config) { c.Synthesis.SampleRate = 12345 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate = %v, want ErrInvalidConfig", err)
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if got := len(reg.Characters()); got != 2 {
		t.Fatalf("registry has %d characters, want 2", got)
	}
	if reg.Narrator() == nil {
		t.Fatal("registry narrator is nil")
	}

	// Unmatched labels fall back to the narrator voice.
	for _, label := range []string{"不明", "Stranger"} {
		profile, err := reg.Resolve(label)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", label, err)
		}
		if profile.SpeakerID != 0 || profile.Gender != "neutral" {
			t.Errorf("Resolve(%q) = %+v, want narrator voice", label, profile)
		}
	}

	// Empty voice fields fall back to the standard Chinese models.
	keon, err := reg.Resolve("Keon")
	if err != nil {
		t.Fatalf("Resolve(Keon): %v", err)
	}
	if keon.AcousticModel != "fastspeech2_aishell3" {
		t.Errorf("AcousticModel = %q, want fastspeech2_aishell3", keon.AcousticModel)
	}
	if keon.Vocoder != "hifigan_aishell3" {
		t.Errorf("Vocoder = %q, want hifigan_aishell3", keon.Vocoder)
	}
}

func TestBuildRegistryEmpty(t *testing.T) {
	cfg := Default()
	cfg.InputFile = "a"
	cfg.OutputFile = "b"
	if _, err := cfg.BuildRegistry(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("BuildRegistry on empty roster = %v, want ErrInvalidConfig", err)
	}
}
