package store

import (
	"fmt"
	"time"

	"github.com/riffdeck/cli/internal/api"
)

type CachedRiff struct {
	AppSlug  string
	RiffID   string
	Name     string
	SyncedAt time.Time
}

type CachedMessage struct {
	Role    string
	Content string
	SentAt  time.Time
}

// ReplaceTranscript mirrors a reconciled message list for one riff. The
// cache follows the engine's last-writer-wins model: the whole transcript
// is swapped in one transaction, never merged.
func (s *Store) ReplaceTranscript(appSlug, riffID, name string, msgs []api.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO riffs (app_slug, riff_id, name, synced_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (app_slug, riff_id) DO UPDATE SET name = excluded.name, synced_at = excluded.synced_at`,
		appSlug, riffID, name, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("upsert riff: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM riff_messages WHERE app_slug = ? AND riff_id = ?`, appSlug, riffID,
	); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}

	for _, m := range msgs {
		if _, err := tx.Exec(
			`INSERT INTO riff_messages (app_slug, riff_id, role, content, sent_at) VALUES (?, ?, ?, ?, ?)`,
			appSlug, riffID, m.Role, m.Text(), m.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// Transcript returns the cached messages for a riff in insertion order.
func (s *Store) Transcript(appSlug, riffID string) ([]CachedMessage, error) {
	rows, err := s.db.Query(
		`SELECT role, content, sent_at FROM riff_messages WHERE app_slug = ? AND riff_id = ? ORDER BY id ASC`,
		appSlug, riffID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var result []CachedMessage
	for rows.Next() {
		var m CachedMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ListRiffs returns cached riffs for an app, most recently synced first.
// Empty appSlug lists everything.
func (s *Store) ListRiffs(appSlug string) ([]CachedRiff, error) {
	query := `SELECT app_slug, riff_id, name, synced_at FROM riffs ORDER BY synced_at DESC`
	args := []any{}
	if appSlug != "" {
		query = `SELECT app_slug, riff_id, name, synced_at FROM riffs WHERE app_slug = ? ORDER BY synced_at DESC`
		args = append(args, appSlug)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query riffs: %w", err)
	}
	defer rows.Close()

	var result []CachedRiff
	for rows.Next() {
		var r CachedRiff
		if err := rows.Scan(&r.AppSlug, &r.RiffID, &r.Name, &r.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan riff: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeleteRiff drops a riff and its cached transcript.
func (s *Store) DeleteRiff(appSlug, riffID string) error {
	_, err := s.db.Exec(`DELETE FROM riffs WHERE app_slug = ? AND riff_id = ?`, appSlug, riffID)
	return err
}
