package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/pkg/config"
	"github.com/wonny/campaign-scorer/pkg/logger"
)

var (
	// Global flags
	configFile string
	logLevel   string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scorer",
	Short: "Bank marketing campaign scorer",
	Long: `Campaign Scorer CLI

은행 마케팅 캠페인 응답 예측 서비스.
원본 고객 레코드 → 파생 변수 25개 → 전처리 → LightGBM → 임계값 판정.

Usage:
  go run ./cmd/scorer [command]

Examples:
  go run ./cmd/scorer api
  go run ./cmd/scorer predict --file clients.json
  go run ./cmd/scorer artifacts check
  go run ./cmd/scorer migrate up`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
}

// setup loads configuration and builds the logger with flag overrides applied
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case logLevel != "":
		cfg.LogLevel = logLevel
	}

	return cfg, logger.New(cfg), nil
}

// artifactPaths maps the configuration onto artifact locations
func artifactPaths(cfg *config.Config) artifacts.Paths {
	return artifacts.Paths{
		Model:         cfg.Artifacts.ModelPath,
		Preprocessor:  cfg.Artifacts.PreprocessorPath,
		FeatureConfig: cfg.Artifacts.FeatureConfigPath,
		Threshold:     cfg.Artifacts.ThresholdPath,
	}
}

// loadOptions returns the artifact loader options implied by --stub-model
func loadOptions(cmd *cobra.Command, stub float64) []artifacts.Option {
	if !cmd.Flags().Changed("stub-model") {
		return nil
	}
	return []artifacts.Option{artifacts.WithModelLoader(artifacts.StaticLoader(stub))}
}
