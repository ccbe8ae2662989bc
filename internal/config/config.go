package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the scanner configuration
type Config struct {
	Scanner     ScannerConfig     `mapstructure:"scanner"`
	Suppression SuppressionConfig `mapstructure:"suppression"`
	Model       ModelConfig       `mapstructure:"model"`
	Report      ReportConfig      `mapstructure:"report"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Signal      SignalConfig      `mapstructure:"signal"`
}

// ScannerConfig holds file selection and candidate settings
type ScannerConfig struct {
	Extensions    []string `mapstructure:"extensions"`      // recognized extensions (without dot)
	Window        int      `mapstructure:"window"`          // 1 = single-line mode, >1 = sliding window
	MinLineLength int      `mapstructure:"min_line_length"` // skip stripped lines shorter than this
	MaxFileSize   string   `mapstructure:"max_file_size"`   // e.g. "2M"
	Workers       int      `mapstructure:"workers"`         // files processed in parallel
	Exclude       []string `mapstructure:"exclude"`         // gitignore-style patterns
	IgnoreFile    string   `mapstructure:"ignore_file"`     // optional gitignore-style file
}

// SuppressionConfig holds heuristic settings
type SuppressionConfig struct {
	RulesPath            string   `mapstructure:"rules_path"`            // extra YAML rule file or directory
	MaxMarkupLength      int      `mapstructure:"max_markup_length"`     // markup heuristic length cap
	SensitiveIdentifiers []string `mapstructure:"sensitive_identifiers"` // overrides the built-in list when set
}

// ModelConfig holds model backend settings
type ModelConfig struct {
	Backend             string  `mapstructure:"backend"`              // pattern, anthropic
	SeverityLabels      string  `mapstructure:"severity_labels"`      // JSON/YAML name -> index file
	VulnerabilityLabels string  `mapstructure:"vulnerability_labels"` // JSON/YAML name -> index file
	MaxLength           int     `mapstructure:"max_length"`           // encoder sequence length
	Timeout             int     `mapstructure:"timeout"`              // seconds per line, 0 disables
	APIKey              string  `mapstructure:"anthropic_api_key"`    // Anthropic API token
	AnthropicModel      string  `mapstructure:"anthropic_model"`      // haiku, sonnet, opus or a model ID
	RequestsPerSecond   float64 `mapstructure:"requests_per_second"`  // remote backend rate limit
	SignaturesPath      string  `mapstructure:"signatures_path"`      // pattern backend signature file
	DeobfuscateDepth    int     `mapstructure:"deobfuscate_depth"`    // pattern backend unwrapping layers
}

// ReportConfig holds report outputs
type ReportConfig struct {
	Output         string `mapstructure:"output"`          // text report path
	PreviewLength  int    `mapstructure:"preview_length"`  // code preview cap in characters
	JSONOutput     string `mapstructure:"json_output"`     // optional
	SARIFOutput    string `mapstructure:"sarif_output"`    // optional
	MarkdownOutput string `mapstructure:"markdown_output"` // optional
}

// MetricsConfig holds the Prometheus textfile export
type MetricsConfig struct {
	Output string `mapstructure:"output"` // optional .prom file
}

// SignalConfig holds the build pipeline signal
type SignalConfig struct {
	EnvFile  string `mapstructure:"env_file"` // file receiving KEY=value lines
	Variable string `mapstructure:"variable"` // name written when no findings
}

// DefaultReportPath is the well-known report location
const DefaultReportPath = "codebert-report.log"

// LoadConfig loads configuration from an optional file, environment variables and defaults
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("scanner.extensions", []string{"php", "html", "htm", "js", "css"})
	v.SetDefault("scanner.window", 1)
	v.SetDefault("scanner.min_line_length", 0)
	v.SetDefault("scanner.max_file_size", "2M")
	v.SetDefault("scanner.workers", 1)
	v.SetDefault("scanner.exclude", []string{".git/", "node_modules/", "vendor/", "*.min.js"})
	v.SetDefault("scanner.ignore_file", "")

	v.SetDefault("suppression.rules_path", "")
	v.SetDefault("suppression.max_markup_length", 120)
	v.SetDefault("suppression.sensitive_identifiers", []string{})

	v.SetDefault("model.backend", "pattern")
	v.SetDefault("model.severity_labels", "")
	v.SetDefault("model.vulnerability_labels", "")
	v.SetDefault("model.max_length", 256)
	v.SetDefault("model.timeout", 30)
	v.SetDefault("model.anthropic_api_key", "")
	v.SetDefault("model.anthropic_model", "haiku")
	v.SetDefault("model.requests_per_second", 2.0)
	v.SetDefault("model.signatures_path", "")
	v.SetDefault("model.deobfuscate_depth", 5)

	v.SetDefault("report.output", DefaultReportPath)
	v.SetDefault("report.preview_length", 100)
	v.SetDefault("report.json_output", "")
	v.SetDefault("report.sarif_output", "")
	v.SetDefault("report.markdown_output", "")

	v.SetDefault("metrics.output", "")

	v.SetDefault("signal.env_file", "")
	v.SetDefault("signal.variable", "CODEBERT_NO_FINDINGS")

	// Config file is optional
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("codebert")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.SetEnvPrefix("CODEBERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize lowercases extensions and strips leading dots
func (c *Config) normalize() {
	exts := make([]string, 0, len(c.Scanner.Extensions))
	for _, ext := range c.Scanner.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Scanner.Extensions = exts
	c.Model.Backend = strings.ToLower(c.Model.Backend)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if len(c.Scanner.Extensions) == 0 {
		return errors.New("scanner.extensions must not be empty")
	}
	if c.Scanner.Window < 1 {
		return fmt.Errorf("scanner.window must be >= 1, got %d", c.Scanner.Window)
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be >= 1, got %d", c.Scanner.Workers)
	}
	if _, err := ParseSize(c.Scanner.MaxFileSize); err != nil {
		return fmt.Errorf("scanner.max_file_size: %w", err)
	}
	if c.Report.PreviewLength < 1 {
		return fmt.Errorf("report.preview_length must be >= 1, got %d", c.Report.PreviewLength)
	}
	if c.Report.Output == "" {
		return errors.New("report.output must not be empty")
	}
	if c.Model.MaxLength < 2 {
		return fmt.Errorf("model.max_length must be >= 2, got %d", c.Model.MaxLength)
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("model.timeout must be >= 0, got %d", c.Model.Timeout)
	}
	switch c.Model.Backend {
	case "pattern", "anthropic":
	default:
		return fmt.Errorf("unknown model.backend %q (valid: pattern, anthropic)", c.Model.Backend)
	}
	return nil
}

// ParseSize parses a byte size such as "650K", "2M" or "1G".
// An empty string means no limit and parses to 0.
func ParseSize(sizeStr string) (int64, error) {
	s := strings.TrimSpace(sizeStr)
	if s == "" {
		return 0, nil
	}

	var multiplier int64 = 1
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	size, err := strconv.ParseInt(s, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid size %q (use a byte count with an optional K, M or G suffix)", sizeStr)
	}
	return size * multiplier, nil
}

// ClassifyTimeout returns the per-line classification timeout (0 = none)
func (c *Config) ClassifyTimeout() time.Duration {
	return time.Duration(c.Model.Timeout) * time.Second
}

// ShouldScanFile determines if a file should be scanned based on extension
func (c *Config) ShouldScanFile(extension string) bool {
	extension = strings.ToLower(extension)
	for _, ext := range c.Scanner.Extensions {
		if ext == extension {
			return true
		}
	}
	return false
}
