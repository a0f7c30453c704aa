package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBFile        string
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
	LocalUserID   string
	LocalUserName string
}

func Load() (*Config, error) {
	delayMin, err := time.ParseDuration(getEnv("REPLY_DELAY_MIN", "2s"))
	if err != nil {
		return nil, fmt.Errorf("REPLY_DELAY_MIN: %w", err)
	}
	delayMax, err := time.ParseDuration(getEnv("REPLY_DELAY_MAX", "3s"))
	if err != nil {
		return nil, fmt.Errorf("REPLY_DELAY_MAX: %w", err)
	}

	cfg := &Config{
		DBFile:        getEnv("CHATPAD_DB", "chatpad.db"),
		ReplyDelayMin: delayMin,
		ReplyDelayMax: delayMax,
		LocalUserID:   getEnv("LOCAL_USER_ID", "current-user"),
		LocalUserName: getEnv("LOCAL_USER_NAME", "You"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBFile == "" {
		return fmt.Errorf("CHATPAD_DB must not be empty")
	}

	if c.ReplyDelayMin <= 0 {
		return fmt.Errorf("REPLY_DELAY_MIN must be greater than 0")
	}

	if c.ReplyDelayMax < c.ReplyDelayMin {
		return fmt.Errorf("REPLY_DELAY_MAX must not be less than REPLY_DELAY_MIN")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
