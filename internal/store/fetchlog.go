package store

import (
	"database/sql"
	"time"
)

// FetchRun is one audited fetch: the pair of reads behind a snapshot, or the
// failure that replaced it.
type FetchRun struct {
	ID                int64
	RequestID         string
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Query             string
	LocationID        sql.NullString
	Success           bool
	Cached            bool
	CurrentStatus     sql.NullInt64
	ForecastStatus    sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	DaysReturned      sql.NullInt64
	ErrorMessage      sql.NullString
}

// StartFetchRun records the start of a fetch and returns its row.
func (s *Store) StartFetchRun(requestID, query string, locationID *string) (*FetchRun, error) {
	run := &FetchRun{
		RequestID: requestID,
		StartedAt: time.Now().UTC(),
		Query:     query,
	}
	if locationID != nil {
		run.LocationID = sql.NullString{String: *locationID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (request_id, started_at, query, location_id, success)
		VALUES (?, ?, ?, ?, FALSE)
	`, run.RequestID, run.StartedAt, run.Query, run.LocationID)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteFetchRun writes the outcome of run.
func (s *Store) CompleteFetchRun(run *FetchRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE fetch_runs SET
			finished_at = ?,
			location_id = ?,
			success = ?,
			cached = ?,
			current_status = ?,
			forecast_status = ?,
			response_size_bytes = ?,
			days_returned = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.LocationID, run.Success, run.Cached, run.CurrentStatus,
		run.ForecastStatus, run.ResponseSizeBytes, run.DaysReturned, run.ErrorMessage, run.ID)
	return err
}

// RecentFetchRuns returns the latest runs, newest first.
func (s *Store) RecentFetchRuns(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, request_id, started_at, finished_at, query, location_id, success, cached,
			   current_status, forecast_status, response_size_bytes, days_returned, error_message
		FROM fetch_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchRun
	for rows.Next() {
		var r FetchRun
		if err := rows.Scan(&r.ID, &r.RequestID, &r.StartedAt, &r.FinishedAt, &r.Query,
			&r.LocationID, &r.Success, &r.Cached, &r.CurrentStatus, &r.ForecastStatus,
			&r.ResponseSizeBytes, &r.DaysReturned, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// FetchHealthSummary aggregates one day of fetches.
type FetchHealthSummary struct {
	Date        string
	TotalRuns   int
	SuccessRuns int
	FailedRuns  int
	CachedRuns  int
}

// FetchHealth returns per-day fetch summaries for the last N days.
func (s *Store) FetchHealth(days int) ([]FetchHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			SUM(CASE WHEN cached THEN 1 ELSE 0 END) as cached_runs
		FROM fetch_runs
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date
		ORDER BY date DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchHealthSummary
	for rows.Next() {
		var h FetchHealthSummary
		if err := rows.Scan(&h.Date, &h.TotalRuns, &h.SuccessRuns, &h.FailedRuns, &h.CachedRuns); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}
