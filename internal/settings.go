package internal

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the process config, loaded from a json file next to the
// binary. DATDASH_ENV selects the dev/test variants.
type Settings struct {
	ConfigsDir   string `json:"configsDir"`
	HoldingsFile string `json:"holdingsFile"`

	ApiPort int `json:"apiPort"`

	// market data provider: "yahoo" (default, keyless) or "alpaca"
	MarketProvider string          `json:"marketProvider"`
	Alpaca         *AlpacaSettings `json:"alpaca,omitempty"`

	MaxConcurrentFetches int `json:"maxConcurrentFetches"`
	FetchRetries         int `json:"fetchRetries"`
	CacheTtlSeconds      int `json:"cacheTtlSeconds"`
	BuildTimeoutSeconds  int `json:"buildTimeoutSeconds"`
}

type AlpacaSettings struct {
	ApiKey    string `json:"apiKey"`
	ApiSecret string `json:"apiSecret"`
}

func LoadSettings() (*Settings, error) {
	settingsFile := "settings.json"
	if os.Getenv("DATDASH_ENV") == "dev" {
		settingsFile = "settings-dev.json"
	} else if os.Getenv("DATDASH_ENV") == "test" {
		settingsFile = "settings-test.json"
	}
	f, err := os.ReadFile(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", settingsFile, err)
	}

	settings := Settings{}
	err = json.Unmarshal(f, &settings)
	if err != nil {
		return nil, err
	}
	settings.applyDefaults()

	return &settings, nil
}

func (s *Settings) applyDefaults() {
	if s.ConfigsDir == "" {
		s.ConfigsDir = "configs"
	}
	if s.HoldingsFile == "" {
		s.HoldingsFile = "data/holdings.json"
	}
	if s.ApiPort == 0 {
		s.ApiPort = 3009
	}
	if s.MarketProvider == "" {
		s.MarketProvider = "yahoo"
	}
	if s.MaxConcurrentFetches == 0 {
		s.MaxConcurrentFetches = 8
	}
	if s.FetchRetries == 0 {
		s.FetchRetries = 3
	}
	if s.CacheTtlSeconds == 0 {
		s.CacheTtlSeconds = 300
	}
	if s.BuildTimeoutSeconds == 0 {
		s.BuildTimeoutSeconds = 60
	}
}
