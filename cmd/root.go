package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "assessment-recommender"

	envPrefix = "RECOMMENDER"
)

type Config struct {
	Catalog   *CatalogConfig  `mapstructure:"catalog"`
	TopN      int             `mapstructure:"top-n"`
	UserAgent string          `mapstructure:"user-agent"`
	HTTP      *HTTPConfig     `mapstructure:"http"`
	Duration  *DurationConfig `mapstructure:"duration"`
	AI        *AIConfig       `mapstructure:"ai"`
	Server    *ServerConfig   `mapstructure:"server"`
}

type CatalogConfig struct {
	Path           string        `mapstructure:"path"`
	ReloadInterval time.Duration `mapstructure:"reload-interval"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type DurationConfig struct {
	Concurrency   int            `mapstructure:"concurrency"`
	RatePerSecond float64        `mapstructure:"rate-per-second"`
	SettleDelay   time.Duration  `mapstructure:"settle-delay"`
	RenderTimeout time.Duration  `mapstructure:"render-timeout"`
	Browser       *BrowserConfig `mapstructure:"browser"`
}

type BrowserConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	ExecPath string `mapstructure:"exec-path"`
	Headless bool   `mapstructure:"headless"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string        `mapstructure:"api-key"`
	APIKeyFile     string        `mapstructure:"api-key-file"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding-model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Port string `mapstructure:"port"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessment-recommender suggests catalog assessments for a job description or job posting",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"server.port":            "PORT",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("catalog", "", "path to the catalog CSV file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
}

func setDefaults() {
	viper.SetDefault("catalog.path", "shl_assessments.csv")
	viper.SetDefault("catalog.reload-interval", time.Duration(0))
	viper.SetDefault("top-n", 10)
	viper.SetDefault("user-agent", "")
	viper.SetDefault("http.timeout", 10*time.Second)
	viper.SetDefault("duration.concurrency", 5)
	viper.SetDefault("duration.rate-per-second", 5.0)
	viper.SetDefault("duration.settle-delay", 2*time.Second)
	viper.SetDefault("duration.render-timeout", 30*time.Second)
	viper.SetDefault("duration.browser.enabled", true)
	viper.SetDefault("duration.browser.exec-path", "")
	viper.SetDefault("duration.browser.headless", true)
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.embedding-model", "text-embedding-004")
	viper.SetDefault("ai.gemini.timeout", 20*time.Second)
	viper.SetDefault("ai.gemini.max-log-length", 200)
}

func initConfig() {
	// .env is optional; the process environment always wins.
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

	// Every key has a default, so only an explicit or broken config file is fatal.
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
