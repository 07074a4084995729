package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
	_ "modernc.org/sqlite"
)

const timeBlockSchemaVersion = 1

// ErrOverlap is returned by Reserve when the new block would overlap an
// active block.
var ErrOverlap = errors.New("time block overlaps an active block")

// TimeBlockStore persists time blocks in SQLite. Scheduled and in-progress
// blocks never overlap: Reserve checks and inserts inside one transaction.
type TimeBlockStore struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// OpenTimeBlockStore opens (and migrates) the time block database at path.
func OpenTimeBlockStore(path string, clock func() time.Time) (*TimeBlockStore, error) {
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// A single connection serialises Reserve's check-then-insert.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	store := &TimeBlockStore{conn: conn, path: path, now: clock}
	if err := store.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return store, nil
}

func (s *TimeBlockStore) initSchema() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}

	var versionText string
	version := 0
	err = tx.QueryRow(`SELECT value FROM schema_meta WHERE key = 'schema_version'`).Scan(&versionText)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if version, err = strconv.Atoi(versionText); err != nil {
			return fmt.Errorf("parse schema version %q: %w", versionText, err)
		}
	}
	if version > timeBlockSchemaVersion {
		return fmt.Errorf("db schema version %d is newer than runtime version %d", version, timeBlockSchemaVersion)
	}

	if version < 1 {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS time_blocks (
				id TEXT PRIMARY KEY,
				task_id TEXT NOT NULL DEFAULT '',
				start_at INTEGER NOT NULL,
				end_at INTEGER NOT NULL,
				status TEXT NOT NULL,
				notes TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_time_blocks_range ON time_blocks(start_at, end_at)`,
			`CREATE INDEX IF NOT EXISTS idx_time_blocks_task ON time_blocks(task_id)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_meta(key, value) VALUES('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(timeBlockSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the database handle.
func (s *TimeBlockStore) Close() error {
	return s.conn.Close()
}

// Reserve inserts block unless it overlaps an active block. A block with an
// empty status is stored as scheduled.
func (s *TimeBlockStore) Reserve(ctx context.Context, block models.TimeBlock) error {
	if block.ID == "" {
		return fmt.Errorf("reserving time block: id must not be empty")
	}
	if !block.Interval().Valid() {
		return fmt.Errorf("reserving time block %s: end must be after start", block.ID)
	}
	if block.Status == "" {
		block.Status = models.BlockScheduled
	}
	if !models.IsValidBlockStatus(block.Status) {
		return fmt.Errorf("reserving time block %s: unknown status %q", block.ID, block.Status)
	}
	if block.Created.IsZero() {
		block.Created = s.now()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reserving time block %s: %w", block.ID, err)
	}
	defer tx.Rollback()

	if block.IsActive() {
		var clash string
		err := tx.QueryRowContext(ctx, `SELECT id FROM time_blocks
			WHERE status IN (?, ?) AND start_at < ? AND end_at > ?
			ORDER BY start_at LIMIT 1`,
			string(models.BlockScheduled), string(models.BlockInProgress),
			block.End.UnixNano(), block.Start.UnixNano(),
		).Scan(&clash)
		if err == nil {
			return fmt.Errorf("reserving time block %s: overlaps %s: %w", block.ID, clash, ErrOverlap)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reserving time block %s: %w", block.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO time_blocks(id, task_id, start_at, end_at, status, notes, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		block.ID, block.TaskID, block.Start.UnixNano(), block.End.UnixNano(),
		string(block.Status), block.Notes, block.Created.UnixNano(),
	); err != nil {
		return fmt.Errorf("reserving time block %s: %w", block.ID, err)
	}
	return tx.Commit()
}

// UpdateStatus changes a block's status. Reactivating a block re-checks
// overlap against the other active blocks.
func (s *TimeBlockStore) UpdateStatus(ctx context.Context, id string, status models.TimeBlockStatus) error {
	if !models.IsValidBlockStatus(status) {
		return fmt.Errorf("updating time block %s: unknown status %q", id, status)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("updating time block %s: %w", id, err)
	}
	defer tx.Rollback()

	var start, end int64
	var current string
	err = tx.QueryRowContext(ctx, `SELECT start_at, end_at, status FROM time_blocks WHERE id = ?`, id).Scan(&start, &end, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("time block %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating time block %s: %w", id, err)
	}

	wasActive := models.TimeBlock{Status: models.TimeBlockStatus(current)}.IsActive()
	if (models.TimeBlock{Status: status}).IsActive() && !wasActive {
		var clash string
		err := tx.QueryRowContext(ctx, `SELECT id FROM time_blocks
			WHERE id <> ? AND status IN (?, ?) AND start_at < ? AND end_at > ? LIMIT 1`,
			id, string(models.BlockScheduled), string(models.BlockInProgress), end, start,
		).Scan(&clash)
		if err == nil {
			return fmt.Errorf("updating time block %s: overlaps %s: %w", id, clash, ErrOverlap)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("updating time block %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE time_blocks SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return fmt.Errorf("updating time block %s: %w", id, err)
	}
	return tx.Commit()
}

// List returns blocks intersecting [from, to), ordered by start. A zero
// bound is open. When activeOnly is set, completed and cancelled blocks are
// omitted.
func (s *TimeBlockStore) List(ctx context.Context, from, to time.Time, activeOnly bool) ([]models.TimeBlock, error) {
	query := `SELECT id, task_id, start_at, end_at, status, notes, created_at FROM time_blocks WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND end_at > ?`
		args = append(args, from.UnixNano())
	}
	if !to.IsZero() {
		query += ` AND start_at < ?`
		args = append(args, to.UnixNano())
	}
	if activeOnly {
		query += ` AND status IN (?, ?)`
		args = append(args, string(models.BlockScheduled), string(models.BlockInProgress))
	}
	query += ` ORDER BY start_at, id`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing time blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.TimeBlock
	for rows.Next() {
		var (
			b                   models.TimeBlock
			start, end, created int64
			status              string
		)
		if err := rows.Scan(&b.ID, &b.TaskID, &start, &end, &status, &b.Notes, &created); err != nil {
			return nil, fmt.Errorf("listing time blocks: %w", err)
		}
		b.Start = time.Unix(0, start).UTC()
		b.End = time.Unix(0, end).UTC()
		b.Created = time.Unix(0, created).UTC()
		b.Status = models.TimeBlockStatus(status)
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing time blocks: %w", err)
	}
	return blocks, nil
}
