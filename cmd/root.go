package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobmatcher"
)

type Config struct {
	Corpus    *CorpusConfig    `mapstructure:"corpus"`
	Storage   *StorageConfig   `mapstructure:"storage"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Recommend *struct {
		Limit int `mapstructure:"limit"`
	} `mapstructure:"recommend"`
	Filters *struct {
		Disabled []string `mapstructure:"disabled"`
	} `mapstructure:"filters"`
	Server *struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
}

type CorpusConfig struct {
	Source      string `mapstructure:"source"`
	File        string `mapstructure:"file"`
	PostgresURL string `mapstructure:"postgres-url"`
	Refresh     string `mapstructure:"refresh"`
}

type StorageConfig struct {
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis-url"`
}

type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	Dimensions int           `mapstructure:"dimensions"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	ExtractModel string `mapstructure:"extract-model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	BatchSize    int    `mapstructure:"batch-size"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatcher recommends vacancies to candidates and learns from their feedback",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"corpus.postgres-url":           "JOBMATCHER_POSTGRES_URL",
		"storage.redis-url":             "JOBMATCHER_REDIS_URL",
		"embedding.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("corpus.source", "file")
	viper.SetDefault("corpus.file", "vacancies.json")
	viper.SetDefault("corpus.refresh", "@every 1h")
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", "state")
	viper.SetDefault("embedding.provider", "hashing")
	viper.SetDefault("recommend.limit", 10)
	viper.SetDefault("server.addr", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run without a config in the current directory,
	// but an explicit or unparsable config must load.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
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

	return config, nil
}
