package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/headhunter"
	"github.com/spigell/ats-tuner/internal/iteration"
	"github.com/spigell/ats-tuner/internal/output"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/secrets"
)

const (
	app       = "ats-tuner"
	envPrefix = "ATS_TUNER"
)

type Config struct {
	Agents         map[string]ai.AgentConfig `mapstructure:"agents"`
	Credentials    map[string]secrets.Source `mapstructure:"credentials"`
	Iteration      iteration.Config          `mapstructure:"iteration"`
	Scoring        ScoringConfig             `mapstructure:"scoring"`
	StateFile      string                    `mapstructure:"state-file"`
	InputFolder    string                    `mapstructure:"input-folder"`
	OutputFolder   string                    `mapstructure:"output-folder"`
	OutputFormat   string                    `mapstructure:"output-format"`
	Concurrency    int                       `mapstructure:"concurrency"`
	SchemaFile     string                    `mapstructure:"schema-file"`
	ExcludeFile    string                    `mapstructure:"exclude-file"`
	MinTargetScore float64                   `mapstructure:"min-target-score"`
	Goals          []string                  `mapstructure:"goals"`
	Target         *TargetConfig             `mapstructure:"target"`
	Headhunter     *HeadhunterConfig         `mapstructure:"headhunter"`
}

type ScoringConfig struct {
	WeightsFile string `mapstructure:"weights-file"`
	SampleSize  int    `mapstructure:"sample-size"`
	CacheSize   int    `mapstructure:"cache-size"`
}

// TargetConfig points to a target file or describes the target inline.
type TargetConfig struct {
	File        string `mapstructure:"file"`
	Title       string `mapstructure:"title"`
	Company     string `mapstructure:"company"`
	Description string `mapstructure:"description"`
	URL         string `mapstructure:"url"`
}

type HeadhunterConfig struct {
	Token     secrets.Source           `mapstructure:"token"`
	UserAgent string                   `mapstructure:"user-agent"`
	Search    *headhunter.SearchParams `mapstructure:"search"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-tuner iteratively rewrites resumes until they score well against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-tuner.yaml in current directory or $HOME/.config/ats-tuner)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	defaults := iteration.DefaultConfig()
	viper.SetDefault("iteration.strategy", string(defaults.Strategy))
	viper.SetDefault("iteration.target-score", defaults.TargetScore)
	viper.SetDefault("iteration.max-iterations", defaults.MaxIterations)
	viper.SetDefault("iteration.max-regressions", defaults.MaxRegressions)
	viper.SetDefault("iteration.patience", defaults.PatienceLimit)

	viper.SetDefault("scoring.sample-size", scoring.DefaultSampleSize)
	viper.SetDefault("scoring.cache-size", scoring.DefaultCacheSize)

	viper.SetDefault("state-file", app+".state.toml")
	viper.SetDefault("input-folder", "resumes")
	viper.SetDefault("output-folder", "optimized")
	viper.SetDefault("output-format", string(output.FormatJSON))
	viper.SetDefault("concurrency", 1)
}

func initConfig() {
	// Provider keys may live in .env. Its absence is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", app))
		}
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Commands like score and version work with defaults alone.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, config.validate()
}

// validate reports every problem at once so a broken config is fixed in one pass.
func (c *Config) validate() error {
	var errs error

	normalized, err := c.Iteration.Normalize()
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("iteration: %w", err))
	} else {
		c.Iteration = normalized
	}

	if c.Concurrency < 1 {
		errs = multierr.Append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.MinTargetScore < 0 || c.MinTargetScore > 100 {
		errs = multierr.Append(errs, fmt.Errorf("min-target-score %.2f outside [0, 100]", c.MinTargetScore))
	}
	if c.Scoring.SampleSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("scoring.sample-size must not be negative"))
	}
	if _, err := output.ParseFormat(c.OutputFormat); err != nil {
		errs = multierr.Append(errs, err)
	}

	for role, agent := range c.Agents {
		agent.Role = role
		provider, err := ai.ParseProvider(string(agent.Provider))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("agents.%s: %w", role, err))
			continue
		}
		agent.Provider = provider
		if err := agent.WithDefaults().Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("agents.%s: %w", role, err))
		}
	}

	return errs
}
