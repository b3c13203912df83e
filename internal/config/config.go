package config

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// DealerMode selects how dealer and vulnerability are chosen for a new board.
type DealerMode string

const (
	// DealerModeRotate follows the standard 16-board duplicate schedule.
	DealerModeRotate DealerMode = "rotate"
	// DealerModeRandom picks dealer and vulnerability at random for every board.
	DealerModeRandom DealerMode = "random"
)

// Runtime env keys read from the Nakama runtime environment.
const (
	EnvTurnDuration = "bridge_turn_duration_sec"
	EnvDealerMode   = "bridge_dealer_mode"
	EnvRecordSecret = "bridge_record_secret"
	EnvRecordIssuer = "bridge_record_issuer"
)

type TableConfig struct {
	TurnDurationSeconds int           `toml:"turn_duration_seconds"`
	DealerMode          DealerMode    `toml:"dealer_mode"`
	TickRate            int           `toml:"tick_rate"`
	Archive             ArchiveConfig `toml:"archive"`
	Record              RecordConfig  `toml:"record"`
}

type ArchiveConfig struct {
	Collection string `toml:"collection"`
	// HistoryLimit caps how many records the auction_history RPC returns.
	HistoryLimit int `toml:"history_limit"`
}

type RecordConfig struct {
	Issuer string `toml:"issuer"`
	// Secret signs completed auction records. Signing is disabled when empty.
	Secret          string `toml:"secret"`
	ValidForSeconds int    `toml:"valid_for_seconds"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() TableConfig {
	return TableConfig{
		TurnDurationSeconds: 30,
		DealerMode:          DealerModeRotate,
		TickRate:            1,
		Archive: ArchiveConfig{
			Collection:   "auctions",
			HistoryLimit: 20,
		},
		Record: RecordConfig{
			Issuer:          "bridgebid",
			ValidForSeconds: 7 * 24 * 3600,
		},
	}
}

var (
	cfg      *TableConfig
	loadOnce sync.Once
	loadErr  error
)

// Load decodes the TOML file at path on top of the defaults.
func Load(path string) (*TableConfig, error) {
	c := Defaults()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("failed to decode table config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadTableConfig loads the table configuration from the given path once per process.
func LoadTableConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetTableConfig returns the loaded configuration, or the defaults if nothing was loaded.
func GetTableConfig() TableConfig {
	if cfg == nil {
		return Defaults()
	}
	return *cfg
}

// Validate rejects settings the table cannot run with.
func (c TableConfig) Validate() error {
	switch c.DealerMode {
	case DealerModeRotate, DealerModeRandom:
	default:
		return fmt.Errorf("unsupported dealer_mode %q", c.DealerMode)
	}
	if c.TurnDurationSeconds < 0 {
		return fmt.Errorf("turn_duration_seconds must not be negative, got %d", c.TurnDurationSeconds)
	}
	if c.TickRate < 1 || c.TickRate > 60 {
		return fmt.Errorf("tick_rate must be within 1..60, got %d", c.TickRate)
	}
	if c.Archive.Collection == "" {
		return fmt.Errorf("archive collection is required")
	}
	return nil
}

// WithEnv returns a copy of c with runtime env overrides applied. Unparseable
// values are ignored.
func (c TableConfig) WithEnv(env map[string]string) TableConfig {
	if val, ok := env[EnvTurnDuration]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			c.TurnDurationSeconds = i
		}
	}
	if val, ok := env[EnvDealerMode]; ok {
		switch mode := DealerMode(val); mode {
		case DealerModeRotate, DealerModeRandom:
			c.DealerMode = mode
		}
	}
	if val, ok := env[EnvRecordSecret]; ok && val != "" {
		c.Record.Secret = val
	}
	if val, ok := env[EnvRecordIssuer]; ok && val != "" {
		c.Record.Issuer = val
	}
	return c
}
