package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultURI = "mongodb://127.0.0.1:27017"

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver"` // mongo, sqlite or memory
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SeedConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Pretty  bool   `mapstructure:"pretty"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load reads .env (if present), an optional config.yaml and the environment.
// The store URI comes from MONGODB_URI, then MONGO_URI, then uriArg, then
// DefaultURI. Other keys use ZENREPORT_<SECTION>_<KEY>.
func Load(uriArg string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("ZENREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.uri", "MONGODB_URI", "MONGO_URI"); err != nil {
		return nil, fmt.Errorf("failed to bind store.uri: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Store.URI == "" {
		cfg.Store.URI = uriArg
	}
	if cfg.Store.URI == "" {
		cfg.Store.URI = DefaultURI
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.database", "zenclass")
	v.SetDefault("store.sqlite_path", "zenclass.db")
	v.SetDefault("store.timeout", "10s")

	v.SetDefault("seed.dir", "sample-data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", true)
	v.SetDefault("logging.no_color", false)
}

// RedactURI hides credentials before a URI is logged. SRV URIs name a hosted
// cluster and are replaced entirely.
func RedactURI(uri string) string {
	if strings.HasPrefix(uri, "mongodb+srv://") {
		return "mongodb+srv://<atlas-cluster>"
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparseable uri>"
	}
	return u.Redacted()
}
