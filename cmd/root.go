package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/hh-resume-fit/internal/ai"
	"github.com/spigell/hh-resume-fit/internal/ai/gemini"
	"github.com/spigell/hh-resume-fit/internal/evaluation"
	"github.com/spigell/hh-resume-fit/internal/headhunter"
	"github.com/spigell/hh-resume-fit/internal/logger"
	"github.com/spigell/hh-resume-fit/internal/secrets"
	"github.com/spigell/hh-resume-fit/internal/server"
	"github.com/spigell/hh-resume-fit/internal/vocabulary"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app       = "hh-resume-fit"
	envPrefix = "HH_RESUME_FIT"
)

type Config struct {
	Server     *server.Config         `mapstructure:"server"`
	AI         *AIConfig              `mapstructure:"ai"`
	Headhunter *HeadhunterConfig      `mapstructure:"headhunter"`
	Vocabulary *vocabulary.Vocabulary `mapstructure:"vocabulary"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	APIKey       string `mapstructure:"api-key" json:"-"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
	Instructions string `mapstructure:"instructions"`
}

type HeadhunterConfig struct {
	Disabled  bool   `mapstructure:"disabled"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-resume-fit matches resumes against hh.ru vacancies",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-resume-fit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5177)
	viper.SetDefault("server.max-body-bytes", 2<<20)
	viper.SetDefault("server.allow-origins", []string{"*"})
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.instructions", "")
	viper.SetDefault("headhunter.disabled", false)
	viper.SetDefault("headhunter.user-agent", "")

	if err := viper.BindEnv("headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
}

func initConfig() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was given explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
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
	if config.Server == nil {
		config.Server = &server.Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Headhunter == nil {
		config.Headhunter = &HeadhunterConfig{}
	}

	return config, nil
}

// setup builds the logger and loads the config. Any failure is fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// newEvaluation compiles the vocabulary and attaches the AI assessor when it
// is enabled and configured. The returned flag tells whether AI is active.
func newEvaluation(ctx context.Context, config *Config, logger *zap.Logger) (*evaluation.Service, bool, error) {
	vocab, err := vocabulary.Default().Merge(config.Vocabulary).Compile()
	if err != nil {
		return nil, false, fmt.Errorf("compiling vocabulary: %w", err)
	}

	var assessor ai.Assessor
	if config.AI.Enabled {
		assessor, err = newAssessor(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping AI assessor, keyword matching stays heuristic", zap.Error(err))
			assessor = nil
		}
	}

	return evaluation.New(vocab, assessor, logger), assessor != nil, nil
}

func newAssessor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Assessor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	assessor := gemini.NewAssessor(generator, logger, cfg.Gemini.MaxLogLength)
	if strings.TrimSpace(cfg.Gemini.Instructions) != "" {
		assessor.SetInstructions(cfg.Gemini.Instructions)
	}

	logger.Info("ai assessor enabled",
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return assessor, nil
}

// newHeadhunter returns nil when vacancy fetching is disabled. The token is
// optional since public vacancies do not need one.
func newHeadhunter(config *HeadhunterConfig, logger *zap.Logger) *headhunter.Client {
	if config.Disabled {
		return nil
	}

	token := ""
	if strings.TrimSpace(config.TokenFile) != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: config.TokenFile,
		})
		if err != nil {
			logger.Warn("loading headhunter token, continuing anonymously",
				zap.Error(err),
				zap.String("hint", "set HH_TOKEN_FILE environment variable or the 'headhunter.token-file' key in the configuration file"),
			)
			token = ""
		}
	}

	hh := headhunter.New(logger, token)
	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}

	return hh
}
