package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# dialogue script to synthesize
input_file: "dialogue.txt"
# WAV artifact path
output_file: "output/dialogue.wav"

# Characters and their voices. Speaker labels in the script are matched
# against names and aliases; unmatched labels fall back to the narrator.
characters:
  - name: "娜奥米"
    aliases: ["Naomi"]
    gender: "female"
    description: "protagonist"
    voice_profile:
      am: "fastspeech2_aishell3"
      voc: "hifigan_aishell3"
      spk_id: 54
  - name: "基翁"
    aliases: ["Keon"]
    gender: "male"
    voice_profile:
      am: "fastspeech2_aishell3"
      voc: "hifigan_aishell3"
      spk_id: 10

# Voice for narration and unknown speakers.
default_narrator:
  gender: "neutral"
  voice_profile:
    am: "fastspeech2_aishell3"
    voc: "hifigan_aishell3"
    spk_id: 0

processing:
  # concurrent synthesis workers (each owns its own engine handle)
  max_workers: 3
  # maximum characters per synthesis call
  chunk_size: 200
  # silence inserted when the speaker changes
  pause_between_speakers_ms: 300
  # per-chunk synthesis deadline
  segment_timeout: "2m"
  # remove per-segment WAV fragments after assembly
  cleanup_temp_files: true

synthesis:
  # engine: paddle or mock
  engine: "paddle"
  sample_rate: 24000

  # PaddleSpeech CLI engine configuration
  paddle:
    binary: "paddlespeech"
    lang: "zh"

  # Mock engine configuration (for testing and dry runs)
  mock:
    generation_delay: "5ms"
    # probability each synthesis call fails (0 to 1)
    failure_rate: 0.0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the scriptcast config file",
	Long:    "\nEdit the scriptcast config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.",
	Example: "scriptcast config\nscriptcast config --config path/to/config.yaml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Scriptcast", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("could not find configuration directory: %w", err)
		}
		configFile = filepath.Join(base, "scriptcast", "scriptcast.yaml")
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
