package store

import (
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store persists dashboard state in SQLite: the saved-locations list (in a
// key/value settings table), the fetch audit log and captured payloads.
type Store struct {
	db       *sql.DB
	validate *validator.Validate
}

func New(db *sql.DB) *Store {
	return &Store{db: db, validate: validator.New()}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func getSetting(q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func putSetting(q queryer, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

func deleteSetting(q queryer, key string) error {
	_, err := q.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}
