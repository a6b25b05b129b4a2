package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/woonieit/octra/client"
	"github.com/woonieit/octra/pkg/log"
)

const (
	configDirEnv  = "OCTRA_CONFIG_DIR"
	logOutputEnv  = "LOG_OUTPUT"
	configDirName = "octra"
	logFileName   = "octra.log"
	dbFileName    = "octra.db"
)

// Config represents the client configuration.
type Config struct {
	ConfigDir string `env:"OCTRA_CONFIG_DIR"`

	WalletPath string `env:"OCTRA_WALLET" env-default:"wallet.json" validate:"required"`
	RPCURL     string `env:"OCTRA_RPC_URL" validate:"omitempty,url"`

	RequestTimeout  time.Duration `env:"OCTRA_REQUEST_TIMEOUT" env-default:"10s" validate:"gt=0"`
	StagingTimeout  time.Duration `env:"OCTRA_STAGING_TIMEOUT" env-default:"5s" validate:"gt=0"`
	RetryMaxElapsed time.Duration `env:"OCTRA_RETRY_MAX_ELAPSED" env-default:"3s" validate:"gte=0"`

	StatusTTL    time.Duration `env:"OCTRA_STATUS_TTL" env-default:"30s" validate:"gt=0"`
	HistoryTTL   time.Duration `env:"OCTRA_HISTORY_TTL" env-default:"60s" validate:"gt=0"`
	HistoryLimit int           `env:"OCTRA_HISTORY_LIMIT" env-default:"20" validate:"min=1,max=100"`
	BatchSize    int           `env:"OCTRA_BATCH_SIZE" env-default:"5" validate:"min=1,max=50"`

	MetricsAddr string `env:"OCTRA_METRICS_ADDR" validate:"omitempty,hostname_port"`

	Log log.Config
}

// Flags are command line overrides of the environment.
type Flags struct {
	ConfigDir string
	Wallet    string
	RPC       string
}

// LoadConfig builds the configuration from the .env file in the config
// directory, the environment and the command line flags, in increasing
// priority.
func LoadConfig(flags Flags) (*Config, error) {
	configDir, err := resolveConfigDir(flags.ConfigDir)
	if err != nil {
		return nil, err
	}

	// Variables already set in the environment win over the .env file.
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	cfg.ConfigDir = configDir

	if flags.Wallet != "" {
		cfg.WalletPath = flags.Wallet
	}
	if flags.RPC != "" {
		cfg.RPCURL = flags.RPC
	}
	if _, ok := os.LookupEnv(logOutputEnv); !ok {
		cfg.Log.Output = filepath.Join(configDir, logFileName)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func resolveConfigDir(flagDir string) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}

	userConfDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(userConfDir, configDirName), nil
}

// DBPath is the location of the local database.
func (c *Config) DBPath() string {
	return filepath.Join(c.ConfigDir, dbFileName)
}

// ClientConfig returns the session cache and batching settings.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		StatusTTL:    c.StatusTTL,
		HistoryTTL:   c.HistoryTTL,
		HistoryLimit: c.HistoryLimit,
		BatchSize:    c.BatchSize,
	}
}
