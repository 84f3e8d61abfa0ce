package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// TravelLog persists serialized journals, one record per session.
type TravelLog struct {
	db *sql.DB
}

// NewTravelLog creates a travel log using the given database.
func NewTravelLog(db *DB) *TravelLog {
	return &TravelLog{db: db.Conn()}
}

// Save stores record for session, replacing any previous one.
func (tl *TravelLog) Save(session string, record []byte, baseURI string) error {
	_, err := tl.db.Exec(
		`INSERT INTO travel_log (session, record, base_uri, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(session) DO UPDATE SET
		   record = excluded.record,
		   base_uri = excluded.base_uri,
		   updated_at = excluded.updated_at`,
		session, record, baseURI,
	)
	if err != nil {
		return fmt.Errorf("saving travel log %q: %w", session, err)
	}
	return nil
}

// Load returns the record stored for session. ok is false if there is none.
func (tl *TravelLog) Load(session string) (record []byte, ok bool, err error) {
	err = tl.db.QueryRow(`SELECT record FROM travel_log WHERE session = ?`, session).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading travel log %q: %w", session, err)
	}
	return record, true, nil
}

// Delete removes the record for session. It reports whether one existed.
func (tl *TravelLog) Delete(session string) (bool, error) {
	res, err := tl.db.Exec(`DELETE FROM travel_log WHERE session = ?`, session)
	if err != nil {
		return false, fmt.Errorf("deleting travel log %q: %w", session, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Sessions lists stored sessions, most recently saved first.
func (tl *TravelLog) Sessions() ([]string, error) {
	rows, err := tl.db.Query(`SELECT session FROM travel_log ORDER BY updated_at DESC, session`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
