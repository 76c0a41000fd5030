package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/letieu/reddit-profiler/config"
	"github.com/letieu/reddit-profiler/internal/reddit"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    username        TEXT PRIMARY KEY,
    fetched_at      TEXT NOT NULL,
    comments        TEXT NOT NULL,
    cached_analysis TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_fetched_at ON sessions(fetched_at);
`

// SQLStore keeps sessions in SQLite, either a local file through
// modernc.org/sqlite or a remote libsql database.
type SQLStore struct {
	conn *sql.DB
	now  func() time.Time
}

// Open selects the backend named by database.type.
func Open(cfg *config.Config) (Store, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	var driver, dsn string
	switch cfg.Database.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "libsql":
		driver, dsn = "libsql", cfg.Database.Url
		if cfg.Database.Token != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", cfg.Database.Url, cfg.Database.Token)
		}
	default:
		driver, dsn = "sqlite", cfg.Database.DBName+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := OpenSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func OpenSQL(driver, dsn string) (*SQLStore, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLStore{conn: conn, now: time.Now}, nil
}

// Migrate applies Schema statement by statement inside one transaction.
func Migrate(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running schema migration %q: %w", stmt, err)
		}
	}

	return tx.Commit()
}

func (s *SQLStore) Put(ctx context.Context, username string, comments []reddit.Comment) (*Session, error) {
	raw, err := json.Marshal(comments)
	if err != nil {
		return nil, fmt.Errorf("encode comments: %w", err)
	}

	fetchedAt := s.now().UTC()

	query := `
		INSERT INTO sessions (username, fetched_at, comments, cached_analysis)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(username) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			comments = excluded.comments,
			cached_analysis = NULL`

	if _, err := s.conn.ExecContext(ctx, query, username, fetchedAt.Format(time.RFC3339Nano), string(raw)); err != nil {
		return nil, fmt.Errorf("save session %s: %w", username, err)
	}

	var saved []reddit.Comment
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	return &Session{Username: username, FetchedAt: fetchedAt, Comments: saved}, nil
}

func (s *SQLStore) Get(ctx context.Context, username string) (*Session, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT username, fetched_at, comments, cached_analysis
		FROM sessions
		WHERE username = ?
	`, username)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

func (s *SQLStore) SetAnalysis(ctx context.Context, username, text string) error {
	res, err := s.conn.ExecContext(ctx, `UPDATE sessions SET cached_analysis = ? WHERE username = ?`, text, username)
	if err != nil {
		return fmt.Errorf("save analysis for %s: %w", username, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT username, fetched_at, comments, cached_analysis
		FROM sessions
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, username string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", username, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess      Session
		fetchedAt string
		raw       string
		analysis  sql.NullString
	)
	if err := row.Scan(&sess.Username, &fetchedAt, &raw, &analysis); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
	}
	sess.FetchedAt = t

	if err := json.Unmarshal([]byte(raw), &sess.Comments); err != nil {
		return nil, fmt.Errorf("decode comments for %s: %w", sess.Username, err)
	}

	if analysis.Valid {
		text := analysis.String
		sess.CachedAnalysis = &text
	}

	return &sess, nil
}
