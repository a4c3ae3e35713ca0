// Package config loads and validates the run configuration: the input
// script, the output artifact, the character voice roster, and the
// processing knobs. The document is YAML; individual settings can be
// overridden through SCRIPTCAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/scriptcast/scriptcast/internal/voice"
)

// ErrInvalidConfig wraps every validation failure so callers can treat
// configuration problems as one fatal class.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration decodes YAML strings like "90s" and env values alike.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the env
// override layer.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// VoiceProfile mirrors the per-character voice block of the document.
type VoiceProfile struct {
	AcousticModel string `yaml:"am" env:"-"`
	Vocoder       string `yaml:"voc" env:"-"`
	SpeakerID     int    `yaml:"spk_id" env:"-"`
}

// Character declares one script character and its voice.
type Character struct {
	Name        string       `yaml:"name"`
	Aliases     []string     `yaml:"aliases"`
	Gender      string       `yaml:"gender"`
	Description string       `yaml:"description"`
	Voice       VoiceProfile `yaml:"voice_profile"`
}

// Narrator declares the fallback voice for unattributed or unmatched
// speakers. Optional; at most one per run.
type Narrator struct {
	Gender string       `yaml:"gender"`
	Voice  VoiceProfile `yaml:"voice_profile"`
}

// Processing holds the concurrency and assembly knobs.
type Processing struct {
	MaxWorkers             int      `yaml:"max_workers" env:"SCRIPTCAST_MAX_WORKERS"`
	ChunkSize              int      `yaml:"chunk_size" env:"SCRIPTCAST_CHUNK_SIZE"`
	PauseBetweenSpeakersMS int      `yaml:"pause_between_speakers_ms" env:"SCRIPTCAST_PAUSE_MS"`
	SegmentTimeout         Duration `yaml:"segment_timeout" env:"SCRIPTCAST_SEGMENT_TIMEOUT"`
	CleanupTempFiles       bool     `yaml:"cleanup_temp_files" env:"SCRIPTCAST_CLEANUP_TEMP"`
}

// Paddle configures the PaddleSpeech CLI engine.
type Paddle struct {
	Binary string `yaml:"binary" env:"SCRIPTCAST_PADDLE_BINARY"`
	Lang   string `yaml:"lang" env:"SCRIPTCAST_PADDLE_LANG"`
}

// Mock configures the mock engine used for tests and dry runs.
type Mock struct {
	GenerationDelay Duration `yaml:"generation_delay" env:"SCRIPTCAST_MOCK_DELAY"`
	FailureRate     float64  `yaml:"failure_rate" env:"SCRIPTCAST_MOCK_FAILURE_RATE"`
}

// Synthesis selects and configures the synthesis engine.
type Synthesis struct {
	Engine     string `yaml:"engine" env:"SCRIPTCAST_ENGINE"`
	SampleRate int    `yaml:"sample_rate" env:"SCRIPTCAST_SAMPLE_RATE"`
	Paddle     Paddle `yaml:"paddle"`
	Mock       Mock   `yaml:"mock"`
}

// Config is the full run configuration.
type Config struct {
	InputFile  string `yaml:"input_file" env:"SCRIPTCAST_INPUT"`
	OutputFile string `yaml:"output_file" env:"SCRIPTCAST_OUTPUT"`

	Characters      []Character `yaml:"characters"`
	DefaultNarrator *Narrator   `yaml:"default_narrator"`

	Processing Processing `yaml:"processing"`
	Synthesis  Synthesis  `yaml:"synthesis"`
}

// Default returns the configuration baseline. YAML and environment
// values are applied on top, so absent keys keep these values.
func Default() Config {
	return Config{
		Processing: Processing{
			MaxWorkers:             maxInt(1, runtime.NumCPU()-1),
			ChunkSize:              200,
			PauseBetweenSpeakersMS: 300,
			SegmentTimeout:         Duration(2 * time.Minute),
			CleanupTempFiles:       true,
		},
		Synthesis: Synthesis{
			Engine:     "paddle",
			SampleRate: 24000,
			Paddle: Paddle{
				Binary: "paddlespeech",
				Lang:   "zh",
			},
			Mock: Mock{
				GenerationDelay: Duration(5 * time.Millisecond),
			},
		},
	}
}

// Load reads path, layers it over the defaults, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: environment overrides: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug("Configuration loaded",
		"path", path,
		"characters", len(cfg.Characters),
		"engine", cfg.Synthesis.Engine,
		"workers", cfg.Processing.MaxWorkers)
	return &cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("%w: input_file is required", ErrInvalidConfig)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("%w: output_file is required", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Characters))
	for _, ch := range c.Characters {
		if ch.Name == "" {
			return fmt.Errorf("%w: character with empty name", ErrInvalidConfig)
		}
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("%w: duplicate character name %q", ErrInvalidConfig, ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}

	p := c.Processing
	if p.MaxWorkers < 1 || p.MaxWorkers > 64 {
		return fmt.Errorf("%w: max_workers must be between 1 and 64, got %d", ErrInvalidConfig, p.MaxWorkers)
	}
	if p.ChunkSize < 10 || p.ChunkSize > 2000 {
		return fmt.Errorf("%w: chunk_size must be between 10 and 2000, got %d", ErrInvalidConfig, p.ChunkSize)
	}
	if p.PauseBetweenSpeakersMS < 0 || p.PauseBetweenSpeakersMS > 10000 {
		return fmt.Errorf("%w: pause_between_speakers_ms must be between 0 and 10000, got %d",
			ErrInvalidConfig, p.PauseBetweenSpeakersMS)
	}
	if p.SegmentTimeout.Std() < time.Second {
		return fmt.Errorf("%w: segment_timeout must be at least 1s, got %v",
			ErrInvalidConfig, p.SegmentTimeout.Std())
	}

	switch c.Synthesis.Engine {
	case "paddle", "mock":
	default:
		return fmt.Errorf("%w: unknown engine %q (must be paddle or mock)",
			ErrInvalidConfig, c.Synthesis.Engine)
	}

	if r := c.Synthesis.Mock.FailureRate; r < 0 || r > 1 {
		return fmt.Errorf("%w: mock failure_rate must be between 0 and 1, got %g", ErrInvalidConfig, r)
	}

	switch c.Synthesis.SampleRate {
	case 8000, 16000, 22050, 24000, 44100, 48000:
	default:
		return fmt.Errorf("%w: unsupported sample_rate %d", ErrInvalidConfig, c.Synthesis.SampleRate)
	}

	return nil
}

// Pause returns the inter-speaker pause as a duration.
func (c *Config) Pause() time.Duration {
	return time.Duration(c.Processing.PauseBetweenSpeakersMS) * time.Millisecond
}

// BuildRegistry converts the character roster into a voice registry.
// Registration order follows document order, which matters for the
// registry's tie-breaking.
func (c *Config) BuildRegistry() (*voice.Registry, error) {
	characters := make([]*voice.Character, 0, len(c.Characters))
	for _, ch := range c.Characters {
		characters = append(characters, voice.NewCharacter(
			ch.Name, ch.Aliases, ch.Gender, toProfile(ch.Voice, ch.Gender, ch.Description), ch.Description))
	}

	var narrator *voice.Character
	if c.DefaultNarrator != nil {
		narrator = voice.NewCharacter(
			"Narrator", []string{"Narrator", "旁白"}, c.DefaultNarrator.Gender,
			toProfile(c.DefaultNarrator.Voice, c.DefaultNarrator.Gender, "Default narrator"),
			"Default narrator for unassigned text")
	}

	if len(characters) == 0 && narrator == nil {
		return nil, fmt.Errorf("%w: no characters and no default narrator", ErrInvalidConfig)
	}
	return voice.NewRegistry(characters, narrator), nil
}

func toProfile(v VoiceProfile, gender, description string) voice.Profile {
	p := voice.Profile{
		AcousticModel: v.AcousticModel,
		Vocoder:       v.Vocoder,
		SpeakerID:     v.SpeakerID,
		Gender:        gender,
		Description:   description,
	}
	if p.AcousticModel == "" {
		p.AcousticModel = "fastspeech2_aishell3"
	}
	if p.Vocoder == "" {
		p.Vocoder = "hifigan_aishell3"
	}
	return p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
