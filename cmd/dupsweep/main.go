package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/config"
	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/reporter"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/fenilsonani/dupsweep/internal/selection"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui"
	"github.com/fenilsonani/dupsweep/internal/ui/models"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath  string
	verbose     bool
	outputFmt   string
	outputFile  string
	keep        string
	prefer      string
	backupDir   string
	remove      bool
	force       bool
	interactive bool
	verify      bool
	minSize     string
	extensions  string
	workers     int
	sensitivity string
	threshold   float64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dupsweep",
	Short: "Find and safely remove duplicate files",
	Long: `dupsweep finds byte-identical files and visually similar images under
the folders you choose, lets you pick which copy of each group to keep, and
moves the rest to the trash with an optional backup and undo.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [folders...]",
	Short: "Find byte-identical duplicate files",
	Long: `Scans the given folders (or the roots from the config file) for files with
identical content and reports each duplicate group. With --remove, every
file except the kept one is moved to the trash.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args, false)
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar [folders...]",
	Short: "Find visually similar images",
	Long: `Scans the given folders for images that look alike, even when their bytes
differ (resized, re-encoded). Similar images are not identical: use --backup
when removing them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args, true)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display current configuration",
	Long:  `Shows the configuration file location and the effective settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(os.Stdout)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(os.Stdout)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := config.EnsureConfigExists()
		if err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		fmt.Printf("Config file: %s\n", cfgPath)
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	for _, cmd := range []*cobra.Command{scanCmd, similarCmd} {
		addScanFlags(cmd)
	}

	// Similarity flags
	similarCmd.Flags().StringVar(&sensitivity, "sensitivity", "", "match sensitivity (strict, medium, loose)")
	similarCmd.Flags().Float64Var(&threshold, "threshold", 0, "explicit distance threshold, overrides --sensitivity")

	// Add commands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(configCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	cmd.Flags().StringVar(&outputFile, "file", "", "save report to file")
	cmd.Flags().StringVar(&keep, "keep", "", "keep strategy (newest, oldest, shortest, preferred)")
	cmd.Flags().StringVar(&prefer, "prefer", "", "preferred folder for the preferred keep strategy")
	cmd.Flags().StringVar(&backupDir, "backup", "", "copy removed files to this folder first")
	cmd.Flags().BoolVar(&remove, "remove", false, "move every non-kept file to the trash")
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "review groups in the interactive UI")
	cmd.Flags().BoolVar(&verify, "verify", false, "confirm hash matches byte for byte")
	cmd.Flags().StringVar(&minSize, "min-size", "", "ignore files smaller than this (e.g. 1KB)")
	cmd.Flags().StringVar(&extensions, "ext", "", "only scan these extensions (comma separated)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

// applyFlags overrides config values with the flags set on cmd
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("keep") {
		cfg.KeepStrategy = keep
	}
	if flags.Changed("prefer") {
		cfg.PreferredFolder = prefer
		if !flags.Changed("keep") {
			cfg.KeepStrategy = string(selection.PreferredFolder)
		}
	}
	if flags.Changed("backup") {
		cfg.BackupDir = backupDir
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}
	if flags.Changed("min-size") {
		cfg.MinFileSize = minSize
	}
	if flags.Changed("ext") {
		cfg.Extensions = []string{extensions}
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Lookup("sensitivity") != nil && flags.Changed("sensitivity") {
		cfg.Sensitivity = sensitivity
	}
	if flags.Lookup("threshold") != nil && flags.Changed("threshold") {
		cfg.Threshold = threshold
	}
	return cfg.Validate()
}

// newLogger builds the logger for a run. Interactive runs without a log file
// stay silent so log lines never land on the TUI.
func newLogger(cfg *config.Config, quiet bool) (logging.Logger, io.Closer, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	if cfg.LogFile != "" {
		var mirror io.Writer = os.Stderr
		if quiet {
			mirror = nil
		}
		logger, f, err := logging.NewFile(cfg.LogFile, level, mirror)
		if err != nil {
			return nil, nil, err
		}
		return logger, f, nil
	}

	if quiet {
		return logging.NewNopLogger(), io.NopCloser(nil), nil
	}
	if !verbose {
		// Progress owns the terminal; only problems are logged
		level = "warn"
	}
	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return nil, nil, err
	}
	return logger, io.NopCloser(nil), nil
}

// newOrchestrator wires the session to the user's trash, guarded by the
// configured protected paths
func newOrchestrator(cfg *config.Config, logger logging.Logger) *session.Orchestrator {
	pr := progress.NewProgressReporter()
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithProgressReporter(pr),
	}

	if trash, err := cleaner.DefaultTrash(); err == nil {
		remover := cleaner.NewRemover(trash, security.NewPathValidator(cfg.ProtectedPaths...), logger)
		remover.SetProgressReporter(pr)
		opts = append(opts, session.WithRemover(remover))
	} else {
		logger.Warn("trash unavailable, removal disabled", "error", err)
	}

	return session.New(opts...)
}

func runScan(cmd *cobra.Command, args []string, similar bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	strategy, err := selection.ParseStrategy(cfg.KeepStrategy)
	if err != nil {
		return err
	}
	if strategy == selection.PreferredFolder && cfg.PreferredFolder == "" {
		return errors.New("the preferred keep strategy needs --prefer or preferred_folder")
	}

	format, err := reporter.ParseFormat(outputFmt)
	if err != nil {
		return err
	}

	scanCfg, err := cfg.ScanConfig(args...)
	if err != nil {
		return err
	}
	if len(scanCfg.Roots) == 0 {
		return errors.New("no folders to scan: pass one or more folders or set roots in the config file")
	}

	logger, closer, err := newLogger(cfg, interactive)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	orch := newOrchestrator(cfg, logger)

	// A new scan makes the previous removal batch non-undoable
	clearJournal(logger)

	if interactive {
		return ui.RunInteractive(orch, models.Options{
			Scan:            scanCfg,
			Similar:         similar,
			Threshold:       cfg.SimilarityThreshold(),
			BackupDir:       cfg.BackupDir,
			PreferredFolder: cfg.PreferredFolder,
			OnRemoval: func(result *cleaner.RemovalResult) {
				if err := saveJournal(result, scanCfg.Roots, cfg.BackupDir); err != nil {
					logger.Error("failed to save undo journal", "error", err)
				}
			},
			OnUndo: func(result *cleaner.UndoResult) {
				if len(result.Errors) == 0 {
					clearJournal(logger)
				}
			},
		})
	}

	// Ctrl+C cancels the scan; the partial result is discarded
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			orch.Cancel()
		}
	}()

	live := ui.NewLiveProgress(os.Stderr)
	updates := orch.Subscribe()
	go live.Run(updates)

	if similar {
		orch.StartSimilarityScan(scanCfg, cfg.SimilarityThreshold())
	} else {
		orch.StartScan(scanCfg)
	}
	orch.Wait()
	orch.Unsubscribe(updates)
	<-live.Done()

	state := orch.Snapshot()
	switch state.Phase {
	case progress.PhaseErrored:
		return fmt.Errorf("scan failed: %w", state.Err)
	case progress.PhaseCancelled:
		return errors.New("scan cancelled")
	}

	orch.ApplyStrategy(strategy, cfg.PreferredFolder)
	state = orch.Snapshot()

	if outputFile != "" {
		if err := reporter.SaveToFile(state, outputFile, format); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("Report saved to: %s\n", outputFile)
	} else {
		rptr := reporter.New(os.Stdout, format)
		if err := rptr.Report(state); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	}

	if !remove {
		return nil
	}
	return removeMarked(orch, scanCfg.Roots, cfg.BackupDir, similar)
}

func showConfig(w io.Writer) error {
	cfgPath := configPath
	if cfgPath == "" {
		var err error
		if cfgPath, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Config file: %s\n", cfgPath)

	// Check if config exists
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "Config file does not exist. Using default configuration.")
		fmt.Fprintln(w, "Run 'dupsweep config init' to create one.")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintln(w)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
