// Package journal persists move state transitions in SQLite so interrupted or
// half-finished moves can be found and reconciled later.
package journal

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/blockboard/internal/board"
)

var ErrNotFound = errors.New("move not found")

var timeNow = time.Now

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// Journal is a board.MoveRecorder backed by a SQLite file.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		// Latest state per move
		`CREATE TABLE IF NOT EXISTS moves (
			id          TEXT PRIMARY KEY,
			source_id   TEXT NOT NULL,
			text        TEXT NOT NULL DEFAULT '',
			dest_kind   TEXT NOT NULL DEFAULT '',
			dest_name   TEXT NOT NULL DEFAULT '',
			new_node_id TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS moves_state ON moves(state)`,

		// Every transition, in order
		`CREATE TABLE IF NOT EXISTS move_events (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			move_id TEXT NOT NULL REFERENCES moves(id),
			state   TEXT NOT NULL,
			detail  TEXT NOT NULL DEFAULT '',
			at      TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", truncate(s, 60), err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(timeNow()), ulid.Monotonic(rand.Reader, 0)).String()
}

// Record stores rec as the latest state of its move and appends the
// transition to the move's history. A record without an ID gets a new one.
func (j *Journal) Record(ctx context.Context, rec board.MoveRecord) error {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.SourceID == "" {
		return fmt.Errorf("record move %s: source id is required", rec.ID)
	}
	at := rec.UpdatedAt
	if at.IsZero() {
		at = timeNow()
	}
	ts := at.UTC().Format(time.RFC3339Nano)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO moves
		(id, source_id, text, dest_kind, dest_name, new_node_id, state, detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			new_node_id = CASE WHEN excluded.new_node_id != '' THEN excluded.new_node_id ELSE moves.new_node_id END,
			state = excluded.state,
			detail = excluded.detail,
			updated_at = excluded.updated_at`,
		rec.ID, rec.SourceID, rec.Text, string(rec.Destination.Kind), rec.Destination.Name,
		rec.NewNodeID, string(rec.State), rec.Detail, ts, ts)
	if err != nil {
		return fmt.Errorf("upsert move %s: %w", rec.ID, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO move_events (move_id, state, detail, at) VALUES (?, ?, ?, ?)`,
		rec.ID, string(rec.State), rec.Detail, ts)
	if err != nil {
		return fmt.Errorf("append move event %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

const selectMoves = `SELECT id, source_id, text, dest_kind, dest_name, new_node_id, state, detail, updated_at FROM moves`

// Pending returns moves whose copy exists but whose source delete was never
// confirmed, oldest first.
func (j *Journal) Pending(ctx context.Context) ([]board.MoveRecord, error) {
	return j.query(ctx, selectMoves+` WHERE state IN (?, ?) ORDER BY id ASC`,
		string(board.MoveInserted), string(board.MoveFailedDelete))
}

// List returns moves newest first, filtered by state when state is non-empty.
func (j *Journal) List(ctx context.Context, state board.MoveState, limit int) ([]board.MoveRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if state == "" {
		return j.query(ctx, selectMoves+` ORDER BY id DESC LIMIT ?`, limit)
	}
	return j.query(ctx, selectMoves+` WHERE state = ? ORDER BY id DESC LIMIT ?`, string(state), limit)
}

// Get returns the latest record of one move.
func (j *Journal) Get(ctx context.Context, id string) (board.MoveRecord, error) {
	recs, err := j.query(ctx, selectMoves+` WHERE id = ?`, id)
	if err != nil {
		return board.MoveRecord{}, err
	}
	if len(recs) == 0 {
		return board.MoveRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return recs[0], nil
}

// History returns the states a move went through, in order.
func (j *Journal) History(ctx context.Context, id string) ([]board.MoveState, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT state FROM move_events WHERE move_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query move events: %w", err)
	}
	defer rows.Close()

	var out []board.MoveState
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan move event: %w", err)
		}
		out = append(out, board.MoveState(s))
	}
	return out, rows.Err()
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]board.MoveRecord, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	out := []board.MoveRecord{}
	for rows.Next() {
		var (
			rec       board.MoveRecord
			kind      string
			state     string
			updatedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SourceID, &rec.Text, &kind, &rec.Destination.Name,
			&rec.NewNodeID, &state, &rec.Detail, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		rec.Destination.Kind = board.DestKind(kind)
		rec.State = board.MoveState(state)
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			rec.UpdatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
