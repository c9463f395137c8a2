package scrobbler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Queue holds scrobbles whose submission failed until they can be retried.
type Queue struct {
	db *sql.DB
}

// QueuedScrobble is a Scrobble stored in the queue.
type QueuedScrobble struct {
	Scrobble
	ID        int64
	Scrobbled bool
	Error     string
}

const schema = `
	CREATE TABLE IF NOT EXISTS scrobbles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		album_artist TEXT,
		duration INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		scrobbled BOOLEAN DEFAULT 0,
		error TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_scrobbled ON scrobbles(scrobbled, timestamp);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON scrobbles(timestamp);
`

const selectColumns = `SELECT id, track, artist, COALESCE(album, ''), COALESCE(album_artist, ''),
	duration, timestamp, scrobbled, COALESCE(error, '') FROM scrobbles`

// NewQueue opens (or creates) the SQLite database at dbPath.
func NewQueue(dbPath string) (*Queue, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the database connection
func (q *Queue) Close() error {
	if q.db != nil {
		return q.db.Close()
	}
	return nil
}

// Add queues a scrobble and returns its id.
func (q *Queue) Add(ctx context.Context, s Scrobble) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO scrobbles (track, artist, album, album_artist, duration, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Track,
		s.Artist,
		s.Album,
		s.AlbumArtist,
		int64(s.Duration.Seconds()),
		s.Timestamp.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scrobble: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}
	return id, nil
}

// MarkScrobbled marks a scrobble as successfully scrobbled
func (q *Queue) MarkScrobbled(ctx context.Context, id int64) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET scrobbled = 1, error = NULL WHERE id = ?", id)
}

// MarkError records errMsg against a scrobble.
func (q *Queue) MarkError(ctx context.Context, id int64, errMsg string) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET error = ? WHERE id = ?", errMsg, id)
}

// MarkIgnored retires a scrobble Last.fm refused, keeping the reason. It
// is never resubmitted.
func (q *Queue) MarkIgnored(ctx context.Context, id int64, reason string) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET scrobbled = 1, error = ? WHERE id = ?", reason, id)
}

func (q *Queue) updateOne(ctx context.Context, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update scrobble: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("scrobble with id %d not found", args[len(args)-1])
	}
	return nil
}

// MarkScrobbledBatch marks multiple scrobbles as successfully scrobbled
func (q *Queue) MarkScrobbledBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "UPDATE scrobbles SET scrobbled = 1, error = NULL WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to mark scrobble %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Pending returns unscrobbled entries, oldest first. A limit of 0 returns
// all of them.
func (q *Queue) Pending(ctx context.Context, limit int) ([]QueuedScrobble, error) {
	query := selectColumns + " WHERE scrobbled = 0 ORDER BY timestamp ASC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return q.query(ctx, query, args...)
}

// All returns every entry, newest first.
func (q *Queue) All(ctx context.Context) ([]QueuedScrobble, error) {
	return q.query(ctx, selectColumns+" ORDER BY timestamp DESC")
}

func (q *Queue) query(ctx context.Context, query string, args ...any) ([]QueuedScrobble, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scrobbles []QueuedScrobble
	for rows.Next() {
		var s QueuedScrobble
		var durationSecs, timestampUnix int64

		err := rows.Scan(
			&s.ID,
			&s.Track,
			&s.Artist,
			&s.Album,
			&s.AlbumArtist,
			&durationSecs,
			&timestampUnix,
			&s.Scrobbled,
			&s.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrobble: %w", err)
		}

		s.Duration = time.Duration(durationSecs) * time.Second
		s.Timestamp = time.Unix(timestampUnix, 0)
		scrobbles = append(scrobbles, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrobbles: %w", err)
	}
	return scrobbles, nil
}

// Cleanup deletes scrobbled entries older than maxAge. Pending entries are
// always kept.
func (q *Queue) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	return q.delete(ctx, "DELETE FROM scrobbles WHERE scrobbled = 1 AND timestamp < ?", cutoff)
}

// CleanupOldFailed deletes failed entries Last.fm would no longer accept.
func (q *Queue) CleanupOldFailed(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-MaxScrobbleAge).Unix()
	return q.delete(ctx, "DELETE FROM scrobbles WHERE scrobbled = 0 AND error IS NOT NULL AND timestamp < ?", cutoff)
}

func (q *Queue) delete(ctx context.Context, query string, cutoff int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup scrobbles: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Count returns the number of scrobbles in the queue
// If includeScrobbled is false, only counts pending scrobbles
func (q *Queue) Count(ctx context.Context, includeScrobbled bool) (int, error) {
	query := "SELECT COUNT(*) FROM scrobbles"
	if !includeScrobbled {
		query += " WHERE scrobbled = 0"
	}

	var count int
	if err := q.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scrobbles: %w", err)
	}
	return count, nil
}
