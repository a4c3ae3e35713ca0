package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/config"
	"github.com/scriptcast/scriptcast/internal/script"
	"github.com/scriptcast/scriptcast/internal/synth"
	"github.com/scriptcast/scriptcast/internal/synth/mock"
)

const testScript = `这是开场的旁白。
娜奥米：你好！基翁：你好，很高兴见到你。
娜奥米：今天天气不错。
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(input, []byte(testScript), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.InputFile = input
	cfg.OutputFile = filepath.Join(dir, "out", "dialogue.wav")
	cfg.Characters = []config.Character{
		{Name: "娜奥米", Aliases: []string{"Naomi"}, Gender: "female",
			Voice: config.VoiceProfile{SpeakerID: 12}},
		{Name: "基翁", Aliases: []string{"Keon"}, Gender: "male",
			Voice: config.VoiceProfile{SpeakerID: 7}},
	}
	cfg.DefaultNarrator = &config.Narrator{Gender: "neutral",
		Voice: config.VoiceProfile{SpeakerID: 0}}
	cfg.Processing.MaxWorkers = 2
	cfg.Processing.PauseBetweenSpeakersMS = 250
	cfg.Synthesis.Engine = "mock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

func TestRunnerEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Narrator + 娜奥米 + 基翁 + 娜奥米.
	if report.Segments != 4 || report.Succeeded != 4 {
		t.Fatalf("report = %d/%d segments, want 4/4", report.Succeeded, report.Segments)
	}
	if report.Failed != 0 || report.TimedOut != 0 {
		t.Errorf("report has %d failed, %d timed out, want 0/0", report.Failed, report.TimedOut)
	}

	final, err := audio.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	// The mock renders 50ms per rune; three speaker changes insert the
	// configured pause.
	var want time.Duration
	for _, seg := range script.Parse(testScript) {
		want += time.Duration(len([]rune(seg.Text))) * 50 * time.Millisecond
	}
	want += 3 * 250 * time.Millisecond
	if got := final.Duration(); got != want {
		t.Errorf("artifact duration = %v, want %v", got, want)
	}
	if report.Duration != want {
		t.Errorf("report.Duration = %v, want %v", report.Duration, want)
	}
	if report.OutputSize == 0 {
		t.Error("report.OutputSize is zero")
	}
}

func TestRunnerKeepsFragments(t *testing.T) {
	cfg := testConfig(t)
	cfg.Processing.CleanupTempFiles = false

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(cfg.OutputFile), "segments-*", "segment_*.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 4 {
		t.Errorf("kept %d fragment files, want 4", len(matches))
	}
}

func TestRunnerCleansFragments(t *testing.T) {
	cfg := testConfig(t)

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(cfg.OutputFile), "segments-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("fragment directories left behind: %v", matches)
	}
}

func TestRunnerEmptyScript(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.InputFile, []byte("   \n\n  "), 0o644); err != nil {
		t.Fatal(err)
	}

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.Run(context.Background()); !errors.Is(err, ErrNoSegments) {
		t.Errorf("Run = %v, want ErrNoSegments", err)
	}
}

func TestRunnerConfiguredFailureRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Synthesis.Mock.FailureRate = 1.0

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	report, err := runner.Run(context.Background())
	if !errors.Is(err, ErrAllSegmentsFailed) {
		t.Fatalf("Run = %v, want ErrAllSegmentsFailed", err)
	}
	if report == nil || report.Succeeded != 0 {
		t.Errorf("report = %+v, want zero successes", report)
	}
	if _, statErr := os.Stat(cfg.OutputFile); !os.IsNotExist(statErr) {
		t.Error("artifact written despite total failure")
	}
}

func TestRunnerAllFailed(t *testing.T) {
	cfg := testConfig(t)
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	// Every call fails: the run must report the outcome and error out
	// rather than writing an empty artifact.
	runner.factory = func() (synth.Engine, error) {
		eng := mock.New(audio.DefaultFormat(), 0)
		eng.FailOn("")
		return eng, nil
	}

	report, err := runner.Run(context.Background())
	if !errors.Is(err, ErrAllSegmentsFailed) {
		t.Fatalf("Run = %v, want ErrAllSegmentsFailed", err)
	}
	if report == nil || report.Succeeded != 0 || report.Failed != report.Segments {
		t.Errorf("report = %+v, want all segments failed", report)
	}
	if _, statErr := os.Stat(cfg.OutputFile); !os.IsNotExist(statErr) {
		t.Error("artifact written despite total failure")
	}
}
