package cardvault

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
[db]
host = "localhost"
user = "cardvault"
database = "cardvault"

[web]
session_key = "secret"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Web.SessionTTL.Duration != 24*time.Hour {
		t.Errorf("Web.SessionTTL = %v, want 24h", cfg.Web.SessionTTL.Duration)
	}
	if cfg.Game.StartingCredits != 1000 {
		t.Errorf("Game.StartingCredits = %d, want 1000", cfg.Game.StartingCredits)
	}
	if cfg.Jobs.TradeExpirySpec != "@every 1m" {
		t.Errorf("Jobs.TradeExpirySpec = %q", cfg.Jobs.TradeExpirySpec)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[db]
host = "localhost"
password = "from-file"

[web]
session_ttl = "2h"
`)
	t.Setenv("CARDVAULT_DB_PASSWORD", "from-env")
	t.Setenv("CARDVAULT_SESSION_KEY", "env-key")
	t.Setenv("CARDVAULT_DB_PORT", "6543")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DB.Password != "from-env" {
		t.Errorf("DB.Password = %q, want from-env", cfg.DB.Password)
	}
	if cfg.Web.SessionKey != "env-key" {
		t.Errorf("Web.SessionKey = %q, want env-key", cfg.Web.SessionKey)
	}
	if cfg.DB.Port != 6543 {
		t.Errorf("DB.Port = %d, want 6543", cfg.DB.Port)
	}
	if cfg.Web.SessionTTL.Duration != 2*time.Hour {
		t.Errorf("Web.SessionTTL = %v, want 2h", cfg.Web.SessionTTL.Duration)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
}
