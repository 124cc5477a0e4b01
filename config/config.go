package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the marketd service configuration.
type Config struct {
	ListenAddress     string `toml:"ListenAddress"`
	DataDir           string `toml:"DataDir"`
	AuditDatabasePath string `toml:"AuditDatabasePath"`
	FeeBps            uint32 `toml:"FeeBps"`
	TreasuryAddress   string `toml:"TreasuryAddress"`
	AuthSecret        string `toml:"AuthSecret"`
	RateLimitPerMin   int    `toml:"RateLimitPerMin"`
	LogLevel          string `toml:"LogLevel"`
	LogPath           string `toml:"LogPath"`
	Environment       string `toml:"Environment"`
	EventBufferSize   int    `toml:"EventBufferSize"`
	// PausedModules lists engine modules that start administratively paused.
	// Mutations against a paused module are rejected until the service is
	// restarted without the entry.
	PausedModules []string `toml:"PausedModules"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ListenAddress:   ":8545",
		DataDir:         "./market-data",
		FeeBps:          250,
		RateLimitPerMin: 600,
		LogLevel:        "info",
		Environment:     "development",
		EventBufferSize: 256,
	}
}

// Load reads the configuration from path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown field %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a misconfigured deployment would otherwise only
// discover at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if c.FeeBps > 10_000 {
		return fmt.Errorf("config: FeeBps %d exceeds 10000", c.FeeBps)
	}
	if strings.TrimSpace(c.TreasuryAddress) == "" {
		return fmt.Errorf("config: TreasuryAddress must be set")
	}
	addr := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.TreasuryAddress)), "0x")
	if len(addr) != 40 {
		return fmt.Errorf("config: TreasuryAddress must be a 20-byte hex address")
	}
	for _, r := range addr {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("config: TreasuryAddress must be a 20-byte hex address")
		}
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("config: RateLimitPerMin must not be negative")
	}
	if c.EventBufferSize < 0 {
		return fmt.Errorf("config: EventBufferSize must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown LogLevel %q", c.LogLevel)
	}
	for _, module := range c.PausedModules {
		if strings.TrimSpace(module) == "" {
			return fmt.Errorf("config: PausedModules must not contain empty names")
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	// The default treasury is intentionally absent: operators must pick one
	// before the service starts taking fees.
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
