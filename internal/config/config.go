package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverREST   = "rest"
	StoreDriverSQLite = "sqlite"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr          string
		CanonicalPath string `mapstructure:"canonical_path"`
	}
	Store Store
	Board struct {
		DefaultTopic   string        `mapstructure:"default_topic"`
		UTCOffsetHours int           `mapstructure:"utc_offset_hours"`
		TemplatePath   string        `mapstructure:"template_path"`
		CookieTTL      time.Duration `mapstructure:"cookie_ttl"`
	}
	Archive struct {
		Bucket    string
		KeyPrefix string `mapstructure:"key_prefix"`
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// Store describes the backend holding users, posts and topics.
type Store struct {
	Driver     string
	URL        string
	Key        string
	Timeout    time.Duration
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("BBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.canonical_path", "/index.php")
	v.SetDefault("store.driver", StoreDriverREST)
	v.SetDefault("store.url", "")
	v.SetDefault("store.key", "")
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("store.sqlite_path", "data/bbs.db")
	v.SetDefault("board.default_topic", "今の話題")
	v.SetDefault("board.utc_offset_hours", 9)
	v.SetDefault("board.template_path", "")
	v.SetDefault("board.cookie_ttl", "720h")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.key_prefix", "bbs-archive")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	// deployments of the old board only export these two
	_ = v.BindEnv("store.url", "BBS_STORE_URL", "SUPABASE_URL")
	_ = v.BindEnv("store.key", "BBS_STORE_KEY", "SUPABASE_KEY")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case StoreDriverREST, StoreDriverSQLite:
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// Configured reports whether both REST store credentials are present.
func (s Store) Configured() bool {
	return strings.TrimSpace(s.URL) != "" && strings.TrimSpace(s.Key) != ""
}

// loadDotEnv exports .env entries that are not already set; a missing file is fine.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
	}
}
