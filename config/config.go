package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lottobox/crypto"
)

// Config is the node daemon's configuration.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	GatewayAddress string `toml:"GatewayAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	Backend        string `toml:"Backend"`
	OwnerAddress   string `toml:"OwnerAddress"`
	NetworkName    string `toml:"NetworkName"`
	LogFile        string `toml:"LogFile"`
	LogMaxSizeMB   int    `toml:"LogMaxSizeMB"`
	LogMaxBackups  int    `toml:"LogMaxBackups"`
	LogMaxAgeDays  int    `toml:"LogMaxAgeDays"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = "127.0.0.1:8646"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = "leveldb"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "lottobox-local"
	}
	if cfg.LogMaxSizeMB == 0 {
		cfg.LogMaxSizeMB = 100
	}
	if cfg.LogMaxBackups == 0 {
		cfg.LogMaxBackups = 5
	}
}

// Validate checks the configuration for obvious mistakes before the daemon
// opens any resources.
func (cfg *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unsupported backend %q (leveldb, bolt or memory)", cfg.Backend)
	}
	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	if _, err := crypto.DecodeAddress(cfg.OwnerAddress); err != nil {
		return fmt.Errorf("config: invalid OwnerAddress: %w", err)
	}
	return nil
}

// Owner returns the decoded orchestrator owner address.
func (cfg *Config) Owner() [20]byte {
	addr, err := crypto.DecodeAddress(cfg.OwnerAddress)
	if err != nil {
		panic(fmt.Sprintf("config not validated: %v", err))
	}
	return addr.Raw()
}

func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	cfg := &Config{OwnerAddress: key.PubKey().Address().String()}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	fmt.Printf("Created default config at %s; generated owner address %s\n", path, cfg.OwnerAddress)
	return cfg, nil
}
