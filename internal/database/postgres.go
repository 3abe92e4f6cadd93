package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// buildPostgresDSN renders a keyword/value DSN. sslmode defaults to disable
// unless the configuration overrides it.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		"host=" + host,
		fmt.Sprintf("port=%d", port),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+cfg.Password)
	}

	options := map[string]string{"sslmode": "disable"}
	for key, value := range cfg.Options {
		options[key] = value
	}
	for _, key := range sortedOptionKeys(options) {
		parts = append(parts, key+"="+options[key])
	}

	return strings.Join(parts, " "), nil
}
