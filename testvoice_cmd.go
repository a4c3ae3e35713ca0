package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/pipeline"
)

// sampleFileName names the sample WAV after the character, with spaces
// replaced so the name stays shell-friendly.
func sampleFileName(name string) string {
	return fmt.Sprintf("test_%s.wav", strings.ReplaceAll(name, " ", "_"))
}

var testVoiceCmd = &cobra.Command{
	Use:   "test-voice NAME",
	Short: "Synthesize a short greeting with one character's voice",
	Long: "\nResolve NAME against the configured characters and synthesize a greeting\n" +
		"sample to test_NAME.wav, so a voice can be checked before a full run.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		registry, err := cfg.BuildRegistry()
		if err != nil {
			return err
		}

		name := args[0]
		character := registry.Find(name)
		if character == nil {
			return fmt.Errorf("no character matches %q; see 'scriptcast characters'", name)
		}

		factory, err := pipeline.EngineFactory(cfg)
		if err != nil {
			return err
		}
		eng, err := factory()
		if err != nil {
			return err
		}
		defer eng.Close() //nolint:errcheck

		greeting := fmt.Sprintf("你好，我是%s，这是我的声音。", character.Name)
		log.Info("Synthesizing voice sample",
			"character", character.Name, "spk_id", character.Voice.SpeakerID)

		fragment, err := eng.Synthesize(cmd.Context(), greeting, character.Voice)
		if err != nil {
			return fmt.Errorf("synthesizing sample for %q: %w", character.Name, err)
		}

		out := sampleFileName(character.Name)
		if err := audio.WriteFile(out, fragment); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%s)\n", out, fragment.Duration().Round(10*time.Millisecond))
		return nil
	},
}
