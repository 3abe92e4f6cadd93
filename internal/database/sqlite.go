package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openSQLite opens a file-backed database, creating parent directories as
// needed. An empty or ":memory:" path yields a shared in-memory database,
// which the tests rely on. WAL mode plus a busy timeout keeps concurrent
// photo uploads from tripping over SQLITE_BUSY.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		path := strings.TrimSpace(cfg.Path)
		if path == "" || strings.EqualFold(path, ":memory:") {
			dsn = "file::memory:?cache=shared&_foreign_keys=1"
		} else {
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
			dsn = fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path))
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Enforce the pragma on the pool as well; cascade deletes on album
	// shares depend on it.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil && err != sql.ErrConnDone {
		return nil, err
	}

	return db, nil
}
