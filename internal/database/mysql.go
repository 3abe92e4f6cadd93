package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

// buildMySQLDSN renders a go-sql-driver DSN. parseTime must stay on or gorm
// cannot scan the timestamp columns.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	credentials := cfg.User
	if cfg.Password != "" {
		credentials += ":" + cfg.Password
	}

	options := map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "Local",
	}
	for key, value := range cfg.Options {
		options[key] = value
	}

	query := make([]string, 0, len(options))
	for _, key := range sortedOptionKeys(options) {
		query = append(query, key+"="+options[key])
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", credentials, host, port, cfg.Name, strings.Join(query, "&")), nil
}
