package config

import (
	"time"

	"github.com/cardvault/cardvault/cardvault"
)

// WebAppConfig contains web-specific configuration
type WebAppConfig struct {
	Config      *cardvault.Config
	Debug       bool
	Environment string
}

// NewWebAppConfig creates a new web app configuration
func NewWebAppConfig(cfg *cardvault.Config) *WebAppConfig {
	environment := "development"
	if cfg.Web.Production {
		environment = "production"
	}

	return &WebAppConfig{
		Config:      cfg,
		Debug:       !cfg.Web.Production,
		Environment: environment,
	}
}

// SecureCookies reports whether session cookies need the Secure flag.
func (w *WebAppConfig) SecureCookies() bool {
	return w.Environment == "production"
}

func (w *WebAppConfig) SessionKey() string {
	return w.Config.Web.SessionKey
}

func (w *WebAppConfig) SessionTTL() time.Duration {
	return w.Config.Web.SessionTTL.Duration
}

func (w *WebAppConfig) StartingCredits() int64 {
	return w.Config.Game.StartingCredits
}

// GetWebConfig returns the web configuration
func (w *WebAppConfig) GetWebConfig() cardvault.WebConfig {
	return w.Config.Web
}
