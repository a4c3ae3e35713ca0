// Package main provides the entry point for the scriptcast CLI, which
// turns labeled dialogue scripts into a single narrated audio file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptcast/scriptcast/internal/config"
	"github.com/scriptcast/scriptcast/internal/pipeline"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	inputFile  string
	outputFile string
	engine     string
	workers    int
	keepTemp   bool
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "scriptcast [SCRIPT]",
		Short: "Turn a dialogue script into narrated audio",
		Long: "\nScriptcast reads a dialogue script with speaker labels, synthesizes every\n" +
			"line with its character's voice, and assembles the result into one WAV file.",
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose || viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE: execute,
	}
)

// loadConfig reads the configuration document, preferring the --config
// flag over discovered locations, and applies command-line overrides.
func loadConfig(args []string) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		return nil, errors.New("no config file found; run 'scriptcast config' to create one")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if len(args) == 1 {
		cfg.InputFile = args[0]
	} else if inputFile != "" {
		cfg.InputFile = inputFile
	}
	if outputFile != "" {
		cfg.OutputFile = outputFile
	}
	if e := viper.GetString("engine"); e != "" {
		cfg.Synthesis.Engine = e
	}
	if w := viper.GetInt("workers"); w > 0 {
		cfg.Processing.MaxWorkers = w
	}
	if keepTemp {
		cfg.Processing.CleanupTempFiles = false
	}
	return cfg, cfg.Validate()
}

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context())
	if err != nil {
		if report != nil {
			fmt.Fprintln(os.Stderr, report.Summary())
		}
		return err
	}

	fmt.Println(report.Summary())
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

// setupLog points logging at SCRIPTCAST_LOGFILE when set, so synthesis
// progress can be captured without polluting stdout.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	if lf := os.Getenv("SCRIPTCAST_LOGFILE"); lf != "" {
		f, err := os.OpenFile(lf, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("error setting up logging: %w", err)
		}
		log.SetOutput(f)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "dialogue script to synthesize")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "path of the WAV artifact")
	rootCmd.Flags().StringVarP(&engine, "engine", "e", "", "synthesis engine (paddle or mock)")
	rootCmd.Flags().IntVarP(&workers, "workers", "j", 0, "synthesis worker count (0 uses the config value)")
	rootCmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "keep per-segment WAV fragments after assembly")

	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetDefault("engine", "")
	viper.SetDefault("workers", 0)

	rootCmd.AddCommand(configCmd, charactersCmd, testVoiceCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	var dirs []string
	if c := os.Getenv("SCRIPTCAST_CONFIG_HOME"); c != "" {
		dirs = append(dirs, c)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append(dirs, filepath.Join(c, "scriptcast"))
	}
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, "scriptcast"))
	}
	dirs = append(dirs, ".")

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("scriptcast")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("scriptcast")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
	}
}
