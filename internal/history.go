package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id             TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL,
	active_dataset TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS messages (
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	id            TEXT NOT NULL,
	role          TEXT NOT NULL,
	content       TEXT NOT NULL,
	summary       TEXT NOT NULL DEFAULT '',
	table_json    TEXT,
	viz_html      TEXT NOT NULL DEFAULT '',
	viz_url       TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	PRIMARY KEY (transcript_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
`

// fixed width so that text ordering matches time ordering
const historyTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// History archives chat transcripts in a local SQLite database
type History struct {
	db *sql.DB
}

// OpenHistory opens the archive at path and creates its tables if needed
func OpenHistory(path string) (*History, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &HistoryError{Op: "open", Err: err}
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, &HistoryError{Op: "open", Err: fmt.Errorf("failed to create schema: %w", err)}
	}
	LogDebug("Opened transcript archive at %s", path)
	return &History{db: db}, nil
}

// Close releases the database handle
func (h *History) Close() error {
	return h.db.Close()
}

// SaveTranscript inserts or replaces t and all of its messages
func (h *History) SaveTranscript(ctx context.Context, t *Transcript) error {
	if t == nil || t.ID == "" {
		return &HistoryError{Op: "save", Err: errors.New("transcript has no id")}
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return &HistoryError{Op: "save", ID: t.ID, Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, started_at, updated_at, active_dataset)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			active_dataset = excluded.active_dataset`,
		t.ID, formatHistoryTime(t.StartedAt), formatHistoryTime(t.UpdatedAt), t.ActiveDataset)
	if err != nil {
		return &HistoryError{Op: "save", ID: t.ID, Err: err}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE transcript_id = ?", t.ID); err != nil {
		return &HistoryError{Op: "save", ID: t.ID, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (transcript_id, seq, id, role, content, summary, table_json, viz_html, viz_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &HistoryError{Op: "save", ID: t.ID, Err: err}
	}
	defer stmt.Close()

	for i, msg := range t.Messages {
		var tableJSON sql.NullString
		if len(msg.Table) > 0 {
			data, err := json.Marshal(msg.Table)
			if err != nil {
				return &HistoryError{Op: "save", ID: t.ID, Err: fmt.Errorf("failed to encode table of message %s: %w", msg.ID, err)}
			}
			tableJSON = sql.NullString{String: string(data), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, t.ID, i, msg.ID, string(msg.Role), msg.Content, msg.Summary,
			tableJSON, msg.VisualizationHTML, msg.VisualizationURL, formatHistoryTime(msg.CreatedAt))
		if err != nil {
			return &HistoryError{Op: "save", ID: t.ID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &HistoryError{Op: "save", ID: t.ID, Err: err}
	}
	LogDebug("Saved transcript %s (%d messages)", t.ID, len(t.Messages))
	return nil
}

// LoadTranscript reads the transcript with the given id
func (h *History) LoadTranscript(ctx context.Context, id string) (*Transcript, error) {
	t := &Transcript{ID: id}
	var started, updated string
	err := h.db.QueryRowContext(ctx,
		"SELECT started_at, updated_at, active_dataset FROM transcripts WHERE id = ?", id,
	).Scan(&started, &updated, &t.ActiveDataset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &HistoryError{Op: "load", ID: id, Err: ErrTranscriptNotFound}
	}
	if err != nil {
		return nil, &HistoryError{Op: "load", ID: id, Err: err}
	}
	t.StartedAt = parseHistoryTime(started)
	t.UpdatedAt = parseHistoryTime(updated)

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, role, content, summary, table_json, viz_html, viz_url, created_at
		FROM messages WHERE transcript_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, &HistoryError{Op: "load", ID: id, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var msg Message
		var role, created string
		var tableJSON sql.NullString
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.Summary, &tableJSON,
			&msg.VisualizationHTML, &msg.VisualizationURL, &created); err != nil {
			return nil, &HistoryError{Op: "load", ID: id, Err: fmt.Errorf("scan failed: %w", err)}
		}
		msg.Role = Role(role)
		msg.CreatedAt = parseHistoryTime(created)
		if tableJSON.Valid {
			if err := json.Unmarshal([]byte(tableJSON.String), &msg.Table); err != nil {
				LogWarn("Skipping unreadable table in transcript %s message %s: %v", id, msg.ID, err)
			}
		}
		t.Messages = append(t.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &HistoryError{Op: "load", ID: id, Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return t, nil
}

// ListTranscripts returns archive entries, most recently updated first
func (h *History) ListTranscripts(ctx context.Context) ([]TranscriptSummary, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT t.id, t.started_at, t.updated_at, t.active_dataset,
			(SELECT COUNT(*) FROM messages m WHERE m.transcript_id = t.id),
			COALESCE((SELECT m.content FROM messages m
				WHERE m.transcript_id = t.id AND m.role = 'user'
				ORDER BY m.seq LIMIT 1), '')
		FROM transcripts t
		ORDER BY t.updated_at DESC, t.id`)
	if err != nil {
		return nil, &HistoryError{Op: "list", Err: err}
	}
	defer rows.Close()

	var summaries []TranscriptSummary
	for rows.Next() {
		var s TranscriptSummary
		var started, updated string
		if err := rows.Scan(&s.ID, &started, &updated, &s.ActiveDataset, &s.MessageCount, &s.FirstQuestion); err != nil {
			return nil, &HistoryError{Op: "list", Err: fmt.Errorf("scan failed: %w", err)}
		}
		s.StartedAt = parseHistoryTime(started)
		s.UpdatedAt = parseHistoryTime(updated)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &HistoryError{Op: "list", Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return summaries, nil
}

// DeleteTranscript removes a transcript and its messages
func (h *History) DeleteTranscript(ctx context.Context, id string) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return &HistoryError{Op: "delete", ID: id, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE transcript_id = ?", id); err != nil {
		return &HistoryError{Op: "delete", ID: id, Err: err}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM transcripts WHERE id = ?", id)
	if err != nil {
		return &HistoryError{Op: "delete", ID: id, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &HistoryError{Op: "delete", ID: id, Err: ErrTranscriptNotFound}
	}
	if err := tx.Commit(); err != nil {
		return &HistoryError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

// FindTranscript resolves an id or unique id prefix against the archive
func (h *History) FindTranscript(ctx context.Context, idOrPrefix string) (*Transcript, error) {
	summaries, err := h.ListTranscripts(ctx)
	if err != nil {
		return nil, err
	}
	var match string
	for _, s := range summaries {
		if s.ID == idOrPrefix {
			return h.LoadTranscript(ctx, s.ID)
		}
		if idOrPrefix != "" && strings.HasPrefix(s.ID, idOrPrefix) {
			if match != "" {
				return nil, &HistoryError{Op: "load", ID: idOrPrefix, Err: errors.New("ambiguous transcript id prefix")}
			}
			match = s.ID
		}
	}
	if match == "" {
		return nil, &HistoryError{Op: "load", ID: idOrPrefix, Err: ErrTranscriptNotFound}
	}
	return h.LoadTranscript(ctx, match)
}

func formatHistoryTime(t time.Time) string {
	return t.UTC().Format(historyTimeFormat)
}

func parseHistoryTime(s string) time.Time {
	t, err := time.Parse(historyTimeFormat, s)
	if err != nil {
		LogDebug("Unparseable archive timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}
