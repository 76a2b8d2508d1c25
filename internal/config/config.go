// Package config loads the store-sync configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Sync holds the Shopware admin API endpoint and credentials. All three are
// injected as CI secrets and required; RepoName is the fallback business
// number when --repo-name is not given.
type Sync struct {
	ShopURL      string `env:"SHOPWARE_URL,required,notEmpty"`
	ClientID     string `env:"SHOPWARE_CLIENT_ID,required,notEmpty"`
	ClientSecret string `env:"SHOPWARE_CLIENT_SECRET,required,notEmpty"`
	RepoName     string `env:"REPO_NAME"`
}

// LoadSync parses the sync configuration from environment variables.
func LoadSync() (*Sync, error) {
	var cfg Sync
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("missing Shopware configuration: %w", err)
	}

	cfg.ShopURL = strings.TrimSpace(cfg.ShopURL)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RepoName = strings.TrimSpace(cfg.RepoName)

	return &cfg, nil
}
