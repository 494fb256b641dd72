package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Переменные окружения с секретами, перекрывают YAML
const (
	EnvSMTPPassword  = "EXAMSLOT_SMTP_PASSWORD"
	EnvJournalDSN    = "EXAMSLOT_JOURNAL_DSN"
	EnvRedisPassword = "EXAMSLOT_REDIS_PASSWORD"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// Логируем ошибку, но не возвращаем — иначе перезапишем основную ошибку
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSMTPPassword); ok && v != "" {
		c.Notify.Email.Password = v
	}
	if v, ok := lookup(EnvJournalDSN); ok && v != "" {
		c.Journal.DSN = v
	}
	if v, ok := lookup(EnvRedisPassword); ok && v != "" {
		c.Notify.Redis.Password = v
	}
}
