package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// RawPayload is a response body kept for a failed read. FetchRunID is the
// run it was listed for (RawPayloadsForRun) or first captured by.
type RawPayload struct {
	ID          int64
	FetchRunID  sql.NullInt64
	FetchedAt   time.Time
	Endpoint    string
	Query       sql.NullString
	PayloadHash string
	SizeBytes   int64
}

// StoreRawPayload gzips and stores payload, deduplicated by content hash,
// and links it to runID when given, so a body repeated across runs is
// listed for each of them. It returns the row id, and whether a new row was
// written.
func (s *Store) StoreRawPayload(runID *int64, endpoint, query string, payload []byte) (int64, bool, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, false, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, false, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	var fetchRunID sql.NullInt64
	if runID != nil {
		fetchRunID = sql.NullInt64{Int64: *runID, Valid: true}
	}
	var queryNull sql.NullString
	if query != "" {
		queryNull = sql.NullString{String: query, Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO raw_payloads (fetch_run_id, fetched_at, endpoint, query, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, fetchRunID, time.Now().UTC(), endpoint, queryNull, buf.Bytes(), hashHex)
	if err != nil {
		return 0, false, fmt.Errorf("insert raw payload: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	inserted := n > 0

	var id int64
	if inserted {
		if id, err = result.LastInsertId(); err != nil {
			return 0, false, err
		}
	} else if err := tx.QueryRow(`SELECT id FROM raw_payloads WHERE payload_hash = ?`, hashHex).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("find duplicate payload: %w", err)
	}

	if runID != nil {
		if _, err := tx.Exec(`
			INSERT INTO fetch_run_payloads (fetch_run_id, raw_payload_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, *runID, id); err != nil {
			return 0, false, fmt.Errorf("link payload to run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit payload: %w", err)
	}
	return id, inserted, nil
}

// GetRawPayload returns the decompressed body stored under id.
func (s *Store) GetRawPayload(id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT payload_compressed FROM raw_payloads WHERE id = ?`, id).
		Scan(&compressed)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// RawPayloadsForRun lists the payloads captured for one fetch run.
func (s *Store) RawPayloadsForRun(runID int64) ([]RawPayload, error) {
	rows, err := s.db.Query(`
		SELECT p.id, l.fetch_run_id, p.fetched_at, p.endpoint, p.query, p.payload_hash, LENGTH(p.payload_compressed)
		FROM fetch_run_payloads l
		JOIN raw_payloads p ON p.id = l.raw_payload_id
		WHERE l.fetch_run_id = ?
		ORDER BY p.id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RawPayload
	for rows.Next() {
		var p RawPayload
		if err := rows.Scan(&p.ID, &p.FetchRunID, &p.FetchedAt, &p.Endpoint, &p.Query,
			&p.PayloadHash, &p.SizeBytes); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// CleanupOldRawPayloads deletes payloads older than retentionDays and
// returns how many rows went.
func (s *Store) CleanupOldRawPayloads(retentionDays int) (int64, error) {
	const expired = `SUBSTR(fetched_at, 1, 19) < datetime('now', '-' || ? || ' days')`

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM fetch_run_payloads
		WHERE raw_payload_id IN (SELECT id FROM raw_payloads WHERE `+expired+`)
	`, retentionDays); err != nil {
		return 0, fmt.Errorf("delete payload links: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM raw_payloads WHERE `+expired, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("delete payloads: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
