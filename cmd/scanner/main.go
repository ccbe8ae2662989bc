package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mhdfahrurozi/codebertTest/internal/config"
	"github.com/mhdfahrurozi/codebertTest/internal/core"
	"github.com/mhdfahrurozi/codebertTest/internal/deobfuscator"
	"github.com/mhdfahrurozi/codebertTest/internal/filesystem"
	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/internal/report"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Exit codes
const (
	exitOK    = 0
	exitInput = 1 // file list missing or unreadable
	exitFatal = 2 // config, label maps, model or report failure
)

var (
	version    = "0.1.0"
	logger     *zap.Logger
	verbose    bool
	configFile string
)

// exitError carries the process exit code of a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps a command error to the process exit code
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFatal
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "scanner",
		Short: "Line-level vulnerability scanner for changed web source files",
		Long: `Scans the js, php, html and css files changed in a revision line by line,
drops lines that cannot hold meaningful code and classifies the rest for
likely security vulnerabilities.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./codebert.yaml if present)")

	// Add commands
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(labelsCmd())
	rootCmd.AddCommand(explainCmd())
	rootCmd.AddCommand(deobCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// initLogger builds the development logger when verbose, otherwise an error-only JSON logger
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		// Silent logger - only errors
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		filesList      string
		workers        int
		window         int
		minLength      int
		backend        string
		outputFile     string
		jsonOutput     string
		sarifOutput    string
		markdownOutput string
		metricsOutput  string
		timeout        int
	)

	cmd := &cobra.Command{
		Use:   "scan [--files list] [paths...]",
		Short: "Scan changed files for vulnerabilities",
		Long: `Scan the files named by --files (one path per line) or given as arguments.
Files without a recognized extension are ignored. The text report is always
written; JSON, SARIF and Markdown exports are written when configured.`,
		Example: `  git diff --name-only origin/main > changed.txt
  scanner scan --files changed.txt
  scanner scan src/login.php public/app.js --sarif-output results.sarif`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return withCode(exitFatal, err)
			}
			defer logger.Sync()

			// Load configuration
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return withCode(exitFatal, err)
			}

			// Override config with CLI flags
			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Scanner.Workers = workers
			}
			if flags.Changed("window") {
				cfg.Scanner.Window = window
			}
			if flags.Changed("min-length") {
				cfg.Scanner.MinLineLength = minLength
			}
			if flags.Changed("backend") {
				cfg.Model.Backend = strings.ToLower(backend)
			}
			if flags.Changed("timeout") {
				cfg.Model.Timeout = timeout
			}
			if outputFile != "" {
				cfg.Report.Output = outputFile
			}
			if jsonOutput != "" {
				cfg.Report.JSONOutput = jsonOutput
			}
			if sarifOutput != "" {
				cfg.Report.SARIFOutput = sarifOutput
			}
			if markdownOutput != "" {
				cfg.Report.MarkdownOutput = markdownOutput
			}
			if metricsOutput != "" {
				cfg.Metrics.Output = metricsOutput
			}
			if err := cfg.Validate(); err != nil {
				return withCode(exitFatal, err)
			}

			// Collect input paths
			paths, err := collectPaths(filesList, args)
			if err != nil {
				logger.Error("Failed to read file list", zap.Error(err))
				return withCode(exitInput, err)
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files changed")
				return nil
			}

			resolver, err := filesystem.NewResolver(cfg, logger)
			if err != nil {
				return withCode(exitFatal, err)
			}
			paths = resolver.Resolve(paths)
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No relevant files found")
				return nil
			}

			return runScan(cmd.OutOrStdout(), cfg, paths)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&filesList, "files", "f", "", "File containing the changed paths, one per line")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of files processed in parallel")
	cmd.Flags().IntVar(&window, "window", 1, "Consecutive non-empty lines per candidate (1 = single-line mode)")
	cmd.Flags().IntVar(&minLength, "min-length", 0, "Skip lines shorter than this after trimming")
	cmd.Flags().StringVar(&backend, "backend", "pattern", "Model backend: pattern, anthropic")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "Per-line classification timeout in seconds (0 disables)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Text report path (default: "+config.DefaultReportPath+")")
	cmd.Flags().StringVar(&jsonOutput, "json-output", "", "Also write a JSON report")
	cmd.Flags().StringVar(&sarifOutput, "sarif-output", "", "Also write a SARIF 2.1.0 report")
	cmd.Flags().StringVar(&markdownOutput, "markdown-output", "", "Also write a Markdown summary")
	cmd.Flags().StringVar(&metricsOutput, "metrics-output", "", "Write Prometheus metrics to this textfile")

	return cmd
}

// collectPaths reads the file list when given, otherwise uses positional paths
func collectPaths(filesList string, args []string) ([]string, error) {
	if filesList != "" {
		paths, err := filesystem.ReadFileList(filesList)
		if err != nil {
			return nil, err
		}
		return append(paths, args...), nil
	}
	if len(args) == 0 {
		return nil, filesystem.ErrNoFileList
	}
	return args, nil
}

// runScan drives the pipeline and writes every output
func runScan(out io.Writer, cfg *config.Config, paths []string) error {
	deps, err := core.NewDeps(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize pipeline", zap.Error(err))
		return withCode(exitFatal, err)
	}

	scanner, err := core.NewScanner(cfg, deps, logger)
	if err != nil {
		return withCode(exitFatal, err)
	}
	scanner.SetProgressCallback(func(phase string, current, total int, message string) {
		logger.Debug("Progress",
			zap.String("phase", phase),
			zap.Int("current", current),
			zap.Int("total", total),
			zap.String("file", message))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, scanErr := scanner.Scan(ctx, paths)
	if snap == nil {
		logger.Error("Scan failed", zap.Error(scanErr))
		return withCode(exitFatal, scanErr)
	}
	if scanErr != nil {
		// Interrupted runs still write what they have
		logger.Warn("Scan interrupted, writing partial results", zap.Error(scanErr))
	}

	generator, err := report.NewGenerator(cfg, logger, report.Options{ToolVersion: version})
	if err != nil {
		return withCode(exitFatal, err)
	}
	written, err := generator.Generate(snap)
	for _, path := range written {
		fmt.Fprintf(out, "Report: %s\n", path)
	}
	if err != nil {
		logger.Error("Failed to generate report", zap.Error(err))
		return withCode(exitFatal, err)
	}

	if cfg.Metrics.Output != "" {
		if err := deps.Metrics.WriteTextfile(cfg.Metrics.Output); err != nil {
			logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}

	if !snap.HasFindings() {
		envFile := cfg.Signal.EnvFile
		if envFile == "" {
			envFile = os.Getenv("GITHUB_ENV")
		}
		if envFile != "" {
			if err := report.AppendSignal(envFile, cfg.Signal.Variable); err != nil {
				logger.Warn("Failed to write pipeline signal", zap.Error(err))
			}
		}
	}

	fmt.Fprintf(out, "Files processed: %d, vulnerabilities found: %d, false positives caught: %d\n",
		snap.Stats.FilesProcessed, snap.Stats.VulnerabilitiesFound, snap.Stats.FalsePositivesCaught)

	if scanErr != nil {
		return withCode(exitFatal, scanErr)
	}
	return nil
}

// labelsCmd prints the resolved label maps
func labelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the severity and vulnerability label maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return withCode(exitFatal, err)
			}
			labels, err := model.LoadLabels(cfg.Model.SeverityLabels, cfg.Model.VulnerabilityLabels)
			if err != nil {
				return withCode(exitFatal, err)
			}

			out := cmd.OutOrStdout()
			printLabelMap(out, "SEVERITY", labels.Severity)
			fmt.Fprintln(out)
			printLabelMap(out, "VULNERABILITY", labels.Vulnerability)
			return nil
		},
	}
}

func printLabelMap(out io.Writer, title string, m *models.LabelMap) {
	fmt.Fprintf(out, "%s:\n", title)
	indices := m.Indices()
	sort.Ints(indices)
	for _, i := range indices {
		fmt.Fprintf(out, "  %3d  %s\n", i, m.Name(i))
	}
}

// explainCmd shows how one line travels through the pipeline
func explainCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "explain <line>",
		Short: "Show the suppression verdict and classification of a single line",
		Example: `  scanner explain --file index.html '</div>'
  scanner explain --file user.php '$q = "SELECT * FROM t WHERE id=" . $_GET["id"];'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return withCode(exitFatal, err)
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return withCode(exitFatal, err)
			}
			deps, err := core.NewDeps(cfg, logger)
			if err != nil {
				return withCode(exitFatal, err)
			}

			text := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()

			verdict, reason := deps.Engine.Explain(text, file)
			fmt.Fprintf(out, "Verdict       : %s", verdict)
			if reason != "" {
				fmt.Fprintf(out, " (%s)", reason)
			}
			fmt.Fprintln(out)
			if verdict.Suppressed() {
				return nil
			}

			cand := models.Candidate{FilePath: file, LineNumber: 1, RawText: args[0], StrippedText: text, Window: 1}
			_, result, err := deps.Classifier.Classify(cmd.Context(), cand)
			if err != nil {
				return withCode(exitFatal, err)
			}
			fmt.Fprintf(out, "Severity      : %s (%.2f)\n", result.Severity, result.SeverityConfidence)
			fmt.Fprintf(out, "Vulnerability : %s (%.2f)\n", result.VulnerabilityType, result.VulnerabilityConfidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "snippet.php", "File name whose extension selects the rules")
	return cmd
}

// deobCmd creates the deobfuscate command
func deobCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "deob <file>",
		Short: "Deobfuscate a file and print result to stdout",
		Long:  `Apply the unwrapping passes used by the pattern backend to a file and print the result to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(exitInput, fmt.Errorf("failed to read file: %w", err))
			}

			manager := deobfuscator.NewDefaultManager(depth)
			result, applied := manager.Deobfuscate(string(content))

			if len(applied) == 0 {
				fmt.Fprintln(os.Stderr, "No obfuscation detected or nothing to deobfuscate")
				fmt.Fprint(cmd.OutOrStdout(), string(content))
				return nil
			}

			fmt.Fprintf(os.Stderr, "Deobfuscation applied: %s\n\n", strings.Join(applied, ", "))
			fmt.Fprint(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 10, "Maximum unwrapping layers")
	return cmd
}

// versionCmd prints the build version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scanner version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scanner %s\n", version)
		},
	}
}
