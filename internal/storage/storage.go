// Package storage provides the daemon's local persistent store using SQLite.
// It holds session-scoped settings, the backend selection decisions and the
// cached shared address. Wallet secrets are owned by the backends, not here.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides persistent storage for the Orbit daemon.
type Storage struct {
	db     *sql.DB
	dbPath string

	mu       sync.RWMutex
	unlocked bool
}

// Config holds storage configuration.
type Config struct {
	DataDir string
}

// New creates a new Storage instance.
func New(cfg *Config) (*Storage, error) {
	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "orbit.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Storage{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// initSchema creates all database tables.
func (s *Storage) initSchema() error {
	schema := `
	-- Key/value settings, including backend selection decisions
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER
	);

	-- Session-scoped data, cleared on every session transition
	CREATE TABLE IF NOT EXISTS session_data (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SetSetting stores a setting value.
func (s *Storage) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns a setting value and whether it exists.
func (s *Storage) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// DeleteSetting removes a setting.
func (s *Storage) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// Setting keys.
const (
	keyIgnoreWalletService = "ignore_wallet_service"
	keySharedAddress       = "shared_address"
	keySharedAddressIndex  = "shared_address_index"
)

// SetIgnoreWalletService records the persistent decision to ignore the
// RemoteService backend after a failed start.
func (s *Storage) SetIgnoreWalletService(ignore bool) error {
	return s.SetSetting(keyIgnoreWalletService, strconv.FormatBool(ignore))
}

// IgnoreWalletService reports whether the RemoteService backend is ignored.
func (s *Storage) IgnoreWalletService() (bool, error) {
	value, ok, err := s.GetSetting(keyIgnoreWalletService)
	if err != nil || !ok {
		return false, err
	}
	ignore, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("corrupt %s setting: %w", keyIgnoreWalletService, err)
	}
	return ignore, nil
}

// SetSharedAddress caches the wallet's current receiving address.
func (s *Storage) SetSharedAddress(address string, index int) error {
	if err := s.SetSetting(keySharedAddress, address); err != nil {
		return err
	}
	return s.SetSetting(keySharedAddressIndex, strconv.Itoa(index))
}

// SharedAddress returns the cached receiving address and derivation index.
func (s *Storage) SharedAddress() (string, int, error) {
	address, ok, err := s.GetSetting(keySharedAddress)
	if err != nil || !ok {
		return "", 0, err
	}
	indexStr, ok, err := s.GetSetting(keySharedAddressIndex)
	if err != nil || !ok {
		return address, 0, err
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return address, 0, nil
	}
	return address, index, nil
}

// SetSessionData stores a session-scoped value.
func (s *Storage) SetSessionData(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO session_data (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

// ClearSessionData removes all session-scoped values. Called on every
// session transition so a superseded session leaves nothing behind.
func (s *Storage) ClearSessionData() error {
	_, err := s.db.Exec(`DELETE FROM session_data`)
	if err != nil {
		return fmt.Errorf("failed to clear session data: %w", err)
	}
	return nil
}
