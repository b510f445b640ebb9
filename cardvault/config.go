package cardvault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cardvault/cardvault/cardvault/database"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML config at path, then applies CARDVAULT_* overrides from the
// environment (and from a .env file next to the working directory, if present).
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.String("error", err.Error()))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log    LogConfig         `toml:"log"`
	DB     database.DBConfig `toml:"db"`
	Web    WebConfig         `toml:"web"`
	Game   GameConfig        `toml:"game"`
	Jobs   JobsConfig        `toml:"jobs"`
	Spaces SpacesConfig      `toml:"spaces"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	AddSource bool       `toml:"add_source"`
}

type WebConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	SessionKey   string   `toml:"session_key"`
	SessionTTL   Duration `toml:"session_ttl"`
	AllowOrigins string   `toml:"allow_origins"`
	Production   bool     `toml:"production"`
}

type GameConfig struct {
	StartingCredits int64 `toml:"starting_credits"`
}

type JobsConfig struct {
	// TradeExpirySpec is a cron spec for the trade expiry sweep.
	TradeExpirySpec string `toml:"trade_expiry_spec"`
	// PruneSpec is a cron spec for deleting zero-quantity collection rows.
	PruneSpec string `toml:"prune_spec"`
}

type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	CardRoot string `toml:"cardroot"`
}

// Duration decodes TOML strings such as "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CARDVAULT_DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("CARDVAULT_DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("CARDVAULT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DB.Port = port
		}
	}
	if v := os.Getenv("CARDVAULT_SESSION_KEY"); v != "" {
		c.Web.SessionKey = v
	}
	if v := os.Getenv("CARDVAULT_SPACES_KEY"); v != "" {
		c.Spaces.Key = v
	}
	if v := os.Getenv("CARDVAULT_SPACES_SECRET"); v != "" {
		c.Spaces.Secret = v
	}
}

func (c *Config) applyDefaults() {
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.Web.Host == "" {
		c.Web.Host = "0.0.0.0"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.SessionTTL.Duration == 0 {
		c.Web.SessionTTL.Duration = 24 * time.Hour
	}
	if c.Web.AllowOrigins == "" {
		c.Web.AllowOrigins = "http://localhost:3000"
	}
	if c.Game.StartingCredits == 0 {
		c.Game.StartingCredits = 1000
	}
	if c.Jobs.TradeExpirySpec == "" {
		c.Jobs.TradeExpirySpec = "@every 1m"
	}
	if c.Jobs.PruneSpec == "" {
		c.Jobs.PruneSpec = "@every 15m"
	}
}
