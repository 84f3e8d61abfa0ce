package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// HistoryEntry represents a single visited page.
type HistoryEntry struct {
	ID        int64
	URL       string
	Title     string
	VisitedAt time.Time
}

// HistoryStore manages persistent browsing history. Unlike a journal it
// is global and never truncated by navigation.
type HistoryStore struct {
	db      *sql.DB
	maxSize int // max number of entries to keep
}

// NewHistoryStore creates a history store using the given database.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db.Conn(), maxSize: 1000}
}

// Add records a page visit. If the URL was already the most recent entry,
// it updates the timestamp instead of creating a duplicate.
func (hs *HistoryStore) Add(url, title string) error {
	if url == "" {
		return nil
	}

	var (
		lastID  int64
		lastURL string
	)
	err := hs.db.QueryRow(`SELECT id, url FROM visits ORDER BY id DESC LIMIT 1`).Scan(&lastID, &lastURL)
	switch {
	case err == nil && lastURL == url:
		_, err = hs.db.Exec(
			`UPDATE visits SET visited_at = datetime('now'),
			 title = CASE WHEN ? = '' THEN title ELSE ? END
			 WHERE id = ?`,
			title, title, lastID,
		)
		return err
	case err != nil && err != sql.ErrNoRows:
		return fmt.Errorf("reading last visit: %w", err)
	}

	if _, err := hs.db.Exec(`INSERT INTO visits (url, title) VALUES (?, ?)`, url, title); err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}

	// Trim if over max.
	_, err = hs.db.Exec(
		`DELETE FROM visits WHERE id NOT IN (SELECT id FROM visits ORDER BY id DESC LIMIT ?)`,
		hs.maxSize,
	)
	return err
}

// List returns up to limit history entries, newest first. A limit of zero
// returns everything.
func (hs *HistoryStore) List(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := hs.db.Query(
		`SELECT id, url, title, visited_at FROM visits ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// Search finds entries matching a query in title or URL.
func (hs *HistoryStore) Search(query string) ([]HistoryEntry, error) {
	like := "%" + query + "%"
	rows, err := hs.db.Query(
		`SELECT id, url, title, visited_at FROM visits
		 WHERE title LIKE ? OR url LIKE ?
		 ORDER BY id DESC`,
		like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// Remove deletes a history entry by id.
func (hs *HistoryStore) Remove(id int64) bool {
	res, err := hs.db.Exec(`DELETE FROM visits WHERE id = ?`, id)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// Clear removes all history entries.
func (hs *HistoryStore) Clear() error {
	_, err := hs.db.Exec(`DELETE FROM visits`)
	return err
}

// Count returns the number of history entries.
func (hs *HistoryStore) Count() int {
	var count int
	hs.db.QueryRow(`SELECT COUNT(*) FROM visits`).Scan(&count)
	return count
}

func scanHistory(rows *sql.Rows) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for rows.Next() {
		var (
			e         HistoryEntry
			visitedAt string
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &visitedAt); err != nil {
			return nil, err
		}
		e.VisitedAt = parseTimestamp(visitedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
