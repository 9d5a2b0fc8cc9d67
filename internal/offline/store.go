// Package offline keeps previously fetched tickets viewable without
// network access: a blob store for ticket PDFs, a metadata store mirroring
// the ticket list, and the gateway that serves both as fallbacks.
//
// Every cache access in the codebase goes through Store so bookkeeping
// rules (savedAt stripping, age purge) are enforced in one place.
package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fasobus/internal/domain"
)

const savedAtField = "savedAt"

type Store struct {
	DB *sql.DB
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func NewStore(db *sql.DB) Store {
	return Store{DB: db}
}

func (s Store) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureSchema creates the cache tables when missing.
func (s Store) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS offline_ticket_blobs (
			ticket_id VARCHAR(64) PRIMARY KEY,
			blob LONGBLOB NOT NULL,
			saved_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offline_ticket_meta (
			ticket_id VARCHAR(64) PRIMARY KEY,
			payload TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offline_sync_state (
			k VARCHAR(32) PRIMARY KEY,
			v VARCHAR(64) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return domain.InternalError{Msg: "offline schema setup failed", Err: err}
		}
	}
	return nil
}

// SaveBlob stores (or replaces) a ticket PDF.
func (s Store) SaveBlob(ticketID string, blob []byte) error {
	_, err := s.DB.Exec(`
		INSERT INTO offline_ticket_blobs (ticket_id, blob, saved_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE blob = VALUES(blob), saved_at = VALUES(saved_at)
	`, ticketID, blob, s.clock())
	if err != nil {
		return domain.InternalError{Msg: "blob save failed", Err: err}
	}
	return nil
}

// Blob returns a cached ticket PDF.
func (s Store) Blob(ticketID string) ([]byte, error) {
	var blob []byte
	err := s.DB.QueryRow(`SELECT blob FROM offline_ticket_blobs WHERE ticket_id = ?`, ticketID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, domain.NotFoundError{Resource: "cached pdf"}
	}
	if err != nil {
		return nil, domain.InternalError{Msg: "blob read failed", Err: err}
	}
	return blob, nil
}

func (s Store) DeleteBlob(ticketID string) error {
	if _, err := s.DB.Exec(`DELETE FROM offline_ticket_blobs WHERE ticket_id = ?`, ticketID); err != nil {
		return domain.InternalError{Msg: "blob delete failed", Err: err}
	}
	return nil
}

// SaveMeta stores one ticket metadata record. The savedAt bookkeeping field
// lives in its own column, never inside the payload.
func (s Store) SaveMeta(ticketID string, meta map[string]any) error {
	payload, err := json.Marshal(stripBookkeeping(meta))
	if err != nil {
		return domain.InternalError{Msg: "meta encode failed", Err: err}
	}
	_, err = s.DB.Exec(`
		INSERT INTO offline_ticket_meta (ticket_id, payload, saved_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), saved_at = VALUES(saved_at)
	`, ticketID, payload, s.clock())
	if err != nil {
		return domain.InternalError{Msg: "meta save failed", Err: err}
	}
	return nil
}

// Meta returns one ticket metadata record, bookkeeping stripped.
func (s Store) Meta(ticketID string) (map[string]any, error) {
	var payload []byte
	err := s.DB.QueryRow(`SELECT payload FROM offline_ticket_meta WHERE ticket_id = ?`, ticketID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.NotFoundError{Resource: "cached ticket"}
	}
	if err != nil {
		return nil, domain.InternalError{Msg: "meta read failed", Err: err}
	}
	return decodeMeta(payload)
}

// AllMeta returns every cached ticket record, bookkeeping stripped.
func (s Store) AllMeta() ([]map[string]any, error) {
	rows, err := s.DB.Query(`SELECT payload FROM offline_ticket_meta ORDER BY ticket_id ASC`)
	if err != nil {
		return nil, domain.InternalError{Msg: "meta list failed", Err: err}
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, domain.InternalError{Msg: "meta scan failed", Err: err}
		}
		meta, err := decodeMeta(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Msg: "meta rows failed", Err: err}
	}
	return out, nil
}

func (s Store) DeleteMeta(ticketID string) error {
	if _, err := s.DB.Exec(`DELETE FROM offline_ticket_meta WHERE ticket_id = ?`, ticketID); err != nil {
		return domain.InternalError{Msg: "meta delete failed", Err: err}
	}
	return nil
}

// ReplaceMeta rewrites the whole metadata cache from a fresh ticket list,
// in one transaction.
func (s Store) ReplaceMeta(list []map[string]any) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return domain.InternalError{Msg: "meta replace begin failed", Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM offline_ticket_meta`); err != nil {
		_ = tx.Rollback()
		return domain.InternalError{Msg: "meta replace clear failed", Err: err}
	}
	now := s.clock()
	for _, meta := range list {
		id := ticketIDFromMeta(meta)
		if id == "" {
			continue
		}
		payload, err := json.Marshal(stripBookkeeping(meta))
		if err != nil {
			_ = tx.Rollback()
			return domain.InternalError{Msg: "meta encode failed", Err: err}
		}
		if _, err := tx.Exec(`
			INSERT INTO offline_ticket_meta (ticket_id, payload, saved_at)
			VALUES (?, ?, ?)
		`, id, payload, now); err != nil {
			_ = tx.Rollback()
			return domain.InternalError{Msg: "meta replace insert failed", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Msg: "meta replace commit failed", Err: err}
	}
	return nil
}

// PurgeOldMeta removes metadata saved more than maxAgeDays ago, leaving
// fresher entries untouched. Returns how many entries were dropped.
func (s Store) PurgeOldMeta(maxAgeDays int) (int64, error) {
	cutoff := s.clock().AddDate(0, 0, -maxAgeDays)
	res, err := s.DB.Exec(`DELETE FROM offline_ticket_meta WHERE saved_at < ?`, cutoff)
	if err != nil {
		return 0, domain.InternalError{Msg: "meta purge failed", Err: err}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SetLastSync records the instant of the last successful ticket list fetch.
func (s Store) SetLastSync(t time.Time) error {
	_, err := s.DB.Exec(`
		INSERT INTO offline_sync_state (k, v) VALUES ('last_sync', ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v)
	`, t.UTC().Format(time.RFC3339))
	if err != nil {
		return domain.InternalError{Msg: "sync state save failed", Err: err}
	}
	return nil
}

func (s Store) LastSync() (time.Time, error) {
	var v string
	err := s.DB.QueryRow(`SELECT v FROM offline_sync_state WHERE k = 'last_sync'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, domain.NotFoundError{Resource: "last sync"}
	}
	if err != nil {
		return time.Time{}, domain.InternalError{Msg: "sync state read failed", Err: err}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, domain.InternalError{Msg: "sync state parse failed", Err: err}
	}
	return t, nil
}

func decodeMeta(payload []byte) (map[string]any, error) {
	var meta map[string]any
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, domain.InternalError{Msg: "meta decode failed", Err: err}
	}
	return stripBookkeeping(meta), nil
}

// stripBookkeeping drops internal fields before a record is handed back to
// callers (or written, so stale copies never leak them back in).
func stripBookkeeping(meta map[string]any) map[string]any {
	if _, ok := meta[savedAtField]; !ok {
		return meta
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if k == savedAtField {
			continue
		}
		out[k] = v
	}
	return out
}

func ticketIDFromMeta(meta map[string]any) string {
	switch v := meta["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
