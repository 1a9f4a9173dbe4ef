// ABOUTME: SQLite implementation of the provenance Store using modernc.org/sqlite
// ABOUTME: Step chains are append-only with schema-enforced linearity.

package provenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/shopnserve/blackboard/internal/capability"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path. The schema
// is created automatically; parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "provenance")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: serializes writers so the chain append is an atomic
	// locate-tail-and-relink, and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("provenance store initialized", "path", path)
	return s, nil
}

// createSchema creates the tables if they don't exist. The partial unique
// index on (session_id) WHERE prev_id IS NULL enforces a single head per
// session; the UNIQUE prev_id keeps the chain linear.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS steps (
			id           TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL REFERENCES sessions(id),
			capability   TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'working',
			error        TEXT,
			prev_id      TEXT UNIQUE REFERENCES steps(id),
			created_at   TEXT NOT NULL,
			updated_at   TEXT,

			CHECK (status IN ('working', 'complete', 'failed'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_steps_head
			ON steps(session_id) WHERE prev_id IS NULL;

		CREATE INDEX IF NOT EXISTS idx_steps_session
			ON steps(session_id, created_at);

		CREATE TABLE IF NOT EXISTS events (
			id                TEXT PRIMARY KEY,
			step_id           TEXT NOT NULL REFERENCES steps(id),
			session_id        TEXT NOT NULL,
			capability        TEXT NOT NULL,
			status            TEXT NOT NULL DEFAULT 'working',
			payload           TEXT,
			error             TEXT,
			ui_component      TEXT,
			backend_component TEXT,
			created_at        TEXT NOT NULL,
			updated_at        TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_events_session
			ON events(session_id, created_at);

		CREATE TABLE IF NOT EXISTS graph_nodes (
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (kind, name)
		);

		CREATE TABLE IF NOT EXISTS graph_edges (
			from_kind TEXT NOT NULL,
			from_name TEXT NOT NULL,
			to_kind   TEXT NOT NULL,
			to_name   TEXT NOT NULL,
			type      TEXT NOT NULL,
			PRIMARY KEY (from_kind, from_name, to_kind, to_name, type)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureSession creates the session row if absent.
func (s *SQLiteStore) EnsureSession(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("ensuring session: %w", err)
	}
	return id, nil
}

// CreateStep appends a working step to the session chain and records its
// provenance event in one transaction.
func (s *SQLiteStore) CreateStep(ctx context.Context, sessionID string, cap capability.Capability, rec EventRecord) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return "", fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return "", ErrNotFound
	}

	// Tail = the step no other step points back to.
	var prevID sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM steps
		WHERE session_id = ?1
		  AND id NOT IN (
			SELECT prev_id FROM steps WHERE session_id = ?1 AND prev_id IS NOT NULL
		  )
	`, sessionID).Scan(&prevID.String)
	switch err {
	case nil:
		prevID.Valid = true
	case sql.ErrNoRows:
		// first step of the session
	default:
		return "", fmt.Errorf("locating chain tail: %w", err)
	}

	stepID := uuid.New().String()
	eventID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO steps (id, session_id, capability, status, prev_id, created_at)
		VALUES (?, ?, ?, 'working', ?, ?)
	`, stepID, sessionID, cap.String(), prevID, now)
	if err != nil {
		return "", fmt.Errorf("inserting step: %w", err)
	}

	var payload sql.NullString
	if len(rec.Payload) > 0 {
		payload = sql.NullString{String: string(rec.Payload), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, step_id, session_id, capability, status, payload, ui_component, backend_component, created_at)
		VALUES (?, ?, ?, ?, 'working', ?, ?, ?, ?)
	`, eventID, stepID, sessionID, cap.String(), payload, rec.UIComponent, rec.BackendComponent, now)
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing step: %w", err)
	}
	return stepID, nil
}

// SetStepStatus transitions a working step to complete or failed. Steps
// already terminal are left untouched. Step and event rows move together
// in one transaction.
func (s *SQLiteStore) SetStepStatus(ctx context.Context, stepID string, status StepStatus, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var errVal sql.NullString
	if status == StepFailed {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE steps SET status = ?2, error = ?3, updated_at = ?4
		WHERE id = ?1 AND status = 'working'
	`, stepID, string(status), errVal, now)
	if err != nil {
		return fmt.Errorf("updating step: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		// Either the step is unknown or already terminal.
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM steps WHERE id = ?`, stepID).Scan(&n); err != nil {
			return fmt.Errorf("checking step: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events SET status = ?2, error = ?3, updated_at = ?4
		WHERE step_id = ?1
	`, stepID, string(status), errVal, now)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status update: %w", err)
	}
	return nil
}

// RecordParticipant upserts a component node.
func (s *SQLiteStore) RecordParticipant(ctx context.Context, kind Kind, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_nodes (kind, name) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, string(kind), name)
	if err != nil {
		return fmt.Errorf("recording participant: %w", err)
	}
	return nil
}

// RecordEdge upserts a typed relationship and both endpoint nodes.
func (s *SQLiteStore) RecordEdge(ctx context.Context, fromKind Kind, fromName string, toKind Kind, toName, edgeType string) error {
	if err := s.RecordParticipant(ctx, fromKind, fromName); err != nil {
		return err
	}
	if err := s.RecordParticipant(ctx, toKind, toName); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_edges (from_kind, from_name, to_kind, to_name, type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, string(fromKind), fromName, string(toKind), toName, edgeType)
	if err != nil {
		return fmt.Errorf("recording edge: %w", err)
	}
	return nil
}

// QueryGraph builds the visualization graph for the session, or for the
// most recently started session when the id is blank.
func (s *SQLiteStore) QueryGraph(ctx context.Context, sessionID string) (*Graph, error) {
	if sessionID == "" {
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1
		`).Scan(&sessionID)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("finding latest session: %w", err)
		}
	} else {
		var n int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&n); err != nil {
			return nil, fmt.Errorf("checking session: %w", err)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
	}

	steps, err := s.sessionSteps(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, name FROM graph_nodes`)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	defer rows.Close()

	var participants []participantView
	for rows.Next() {
		var p participantView
		var kind string
		if err := rows.Scan(&kind, &p.Name); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		p.Kind = Kind(kind)
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading participants: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT from_kind, from_name, to_kind, to_name, type FROM graph_edges
	`)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	defer edgeRows.Close()

	var facts []edgeView
	for edgeRows.Next() {
		var e edgeView
		var fromKind, toKind string
		if err := edgeRows.Scan(&fromKind, &e.FromName, &toKind, &e.ToName, &e.Type); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.FromKind, e.ToKind = Kind(fromKind), Kind(toKind)
		facts = append(facts, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}

	return buildGraph(sessionID, steps, participants, facts), nil
}

// sessionSteps loads a session's steps in chain order by walking the prev
// pointers from the head.
func (s *SQLiteStore) sessionSteps(ctx context.Context, sessionID string) ([]stepView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.capability, st.status, st.prev_id,
		       COALESCE(e.id, ''), COALESCE(e.ui_component, ''), COALESCE(e.backend_component, '')
		FROM steps st
		LEFT JOIN events e ON e.step_id = st.id
		WHERE st.session_id = ?
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading steps: %w", err)
	}
	defer rows.Close()

	byPrev := make(map[string]stepView) // prev id ("" for head) -> step
	for rows.Next() {
		var sv stepView
		var status string
		var prev sql.NullString
		if err := rows.Scan(&sv.ID, &sv.Capability, &status, &prev, &sv.EventID, &sv.UI, &sv.Backend); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		sv.Status = StepStatus(status)
		byPrev[prev.String] = sv
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading steps: %w", err)
	}

	ordered := make([]stepView, 0, len(byPrev))
	for cur, ok := byPrev[""]; ok; cur, ok = byPrev[cur.ID] {
		ordered = append(ordered, cur)
	}
	return ordered, nil
}

// ListRecentEvents returns events newest first, optionally session-scoped.
func (s *SQLiteStore) ListRecentEvents(ctx context.Context, limit int, sessionID string) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, step_id, session_id, capability, status,
		       COALESCE(payload, ''), COALESCE(error, ''),
		       COALESCE(ui_component, ''), COALESCE(backend_component, ''),
		       created_at, updated_at
		FROM events
	`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var ev Event
		var status, createdAt string
		var updatedAt sql.NullString
		if err := rows.Scan(&ev.ID, &ev.StepID, &ev.SessionID, &ev.Capability, &status,
			&ev.Payload, &ev.Error, &ev.Sender, &ev.Receiver, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Status = StepStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.CreatedAt = t
		}
		if updatedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, updatedAt.String); err == nil {
				ev.UpdatedAt = &t
			}
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
