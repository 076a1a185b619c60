package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	propertiesModeShell = "shell"
	propertiesModeHTTP  = "http"

	journalModeMemory = "memory"
	journalModeBadger = "badger"
)

type config struct {
	NodeID   string
	ClientID string

	BrokerURL string

	PropertiesMode    string
	PropertiesBaseURL string

	JournalMode string
	JournalDir  string

	AdminListenAddr   string
	HeartbeatInterval time.Duration
}

func defaultConfig() config {
	return config{
		BrokerURL:         "tcp://localhost:1883",
		PropertiesMode:    propertiesModeShell,
		JournalMode:       journalModeMemory,
		HeartbeatInterval: time.Second,
	}
}

// fileConfig is the orb-node config.toml key mapping.
type fileConfig struct {
	NodeID            string `toml:"node_id"`
	ClientID          string `toml:"client_id"`
	BrokerURL         string `toml:"broker_url"`
	PropertiesMode    string `toml:"properties_mode"`
	PropertiesBaseURL string `toml:"properties_base_url"`
	JournalMode       string `toml:"journal_mode"`
	JournalDir        string `toml:"journal_dir"`
	AdminListenAddr   string `toml:"admin_listen_addr"`
	HeartbeatInterval string `toml:"heartbeat_interval"`
}

// loadConfig overlays config.toml onto defaults. A missing file is not
// an error, the node then runs fully on defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load orb-node config: %w", err)
	}

	if meta.IsDefined("node_id") {
		cfg.NodeID = strings.TrimSpace(raw.NodeID)
	}
	if meta.IsDefined("client_id") {
		cfg.ClientID = strings.TrimSpace(raw.ClientID)
	}
	if meta.IsDefined("broker_url") {
		cfg.BrokerURL = strings.TrimSpace(raw.BrokerURL)
	}
	if meta.IsDefined("properties_mode") {
		cfg.PropertiesMode = strings.TrimSpace(raw.PropertiesMode)
	}
	if meta.IsDefined("properties_base_url") {
		cfg.PropertiesBaseURL = strings.TrimSpace(raw.PropertiesBaseURL)
	}
	if meta.IsDefined("journal_mode") {
		cfg.JournalMode = strings.TrimSpace(raw.JournalMode)
	}
	if meta.IsDefined("journal_dir") {
		cfg.JournalDir = strings.TrimSpace(raw.JournalDir)
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("heartbeat_interval") {
		ivl, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return config{}, fmt.Errorf("load orb-node config: parsing heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = ivl
	}

	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("load orb-node config: %w", err)
	}

	return cfg, nil
}

func (cfg config) validate() error {
	if cfg.BrokerURL == "" {
		return errors.New("broker_url must not be empty")
	}

	switch cfg.PropertiesMode {
	case propertiesModeShell:
	case propertiesModeHTTP:
		if cfg.PropertiesBaseURL == "" {
			return errors.New("properties_base_url is required for http properties mode")
		}
	default:
		return fmt.Errorf(
			"unsupported properties_mode %q (expected %s or %s)",
			cfg.PropertiesMode,
			propertiesModeShell,
			propertiesModeHTTP,
		)
	}

	switch cfg.JournalMode {
	case journalModeMemory:
	case journalModeBadger:
		if cfg.JournalDir == "" {
			return errors.New("journal_dir is required for badger journal mode")
		}
	default:
		return fmt.Errorf(
			"unsupported journal_mode %q (expected %s or %s)",
			cfg.JournalMode,
			journalModeMemory,
			journalModeBadger,
		)
	}

	if cfg.HeartbeatInterval <= 0 {
		return errors.New("heartbeat_interval must be positive")
	}

	return nil
}
