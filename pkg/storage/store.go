package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"postwatch/pkg/config"
	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PendingDeletion is a persisted obligation to delete one Telegram
// message at a given time. Obligations survive restarts; the scheduler
// picks up due rows on its next sweep.
type PendingDeletion struct {
	ID        string
	ChatID    int64
	MessageID int
	FireAt    time.Time
}

// Store is the persistence surface for snapshots and deletion
// obligations.
type Store interface {
	// GetSnapshot returns (nil, nil) when no snapshot exists for the target.
	GetSnapshot(ctx context.Context, target posts.Target) (*posts.Snapshot, error)

	// ReplaceSnapshot upserts a whole snapshot row, discarding any prior
	// snapshot for the same target.
	ReplaceSnapshot(ctx context.Context, snapshot *posts.Snapshot) error

	// AddPendingDeletion records a deletion obligation. Re-adding an
	// existing id is a no-op.
	AddPendingDeletion(ctx context.Context, pd PendingDeletion) error

	// DuePendingDeletions returns obligations whose fire time has passed,
	// oldest first, capped at limit.
	DuePendingDeletions(ctx context.Context, now time.Time, limit int) ([]PendingDeletion, error)

	// RemovePendingDeletion discharges an obligation by id.
	RemovePendingDeletion(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// SQLStore implements Store over database/sql. The same code path
// serves SQLite and Postgres; queries are written with ? placeholders
// and rebound for the postgres dialect.
type SQLStore struct {
	db      *sql.DB
	dialect string
	log     logger.Logger
}

// Open connects to the configured backend, verifies the connection and
// applies any pending schema migrations.
func Open(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*SQLStore, error) {
	var (
		driver  string
		dsn     string
		dialect string
	)

	switch strings.ToLower(cfg.Backend) {
	case "sqlite", "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		driver = "sqlite"
		dialect = "sqlite3"
		dsn = "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case "postgres":
		driver = "pgx"
		dialect = "postgres"
		dsn = cfg.PostgresDSN
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Backend, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Backend, err)
	}

	store := &SQLStore{db: db, dialect: dialect, log: log}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.DebugWithFields("storage ready", map[string]interface{}{
		"backend": cfg.Backend,
	})

	return store, nil
}

// migrate applies the embedded goose migrations.
func (s *SQLStore) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot for the target, or (nil, nil)
// when no snapshot exists.
func (s *SQLStore) GetSnapshot(ctx context.Context, target posts.Target) (*posts.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT fetched_at, fingerprint, posts FROM snapshots WHERE platform = ? AND handle = ?`),
		string(target.Platform), target.Handle)

	var (
		fetchedAt   int64
		fingerprint string
		postsJSON   string
	)
	if err := row.Scan(&fetchedAt, &fingerprint, &postsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var items []posts.Post
	if err := json.Unmarshal([]byte(postsJSON), &items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot posts: %w", err)
	}

	return &posts.Snapshot{
		Target:      target,
		FetchedAt:   time.Unix(fetchedAt, 0).UTC(),
		Fingerprint: fingerprint,
		Posts:       items,
	}, nil
}

// ReplaceSnapshot upserts the snapshot row for its target.
func (s *SQLStore) ReplaceSnapshot(ctx context.Context, snapshot *posts.Snapshot) error {
	items := snapshot.Posts
	if items == nil {
		items = []posts.Post{}
	}
	postsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot posts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO snapshots (platform, handle, fetched_at, fingerprint, posts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (platform, handle) DO UPDATE SET
		   fetched_at = excluded.fetched_at,
		   fingerprint = excluded.fingerprint,
		   posts = excluded.posts`),
		string(snapshot.Target.Platform), snapshot.Target.Handle,
		snapshot.FetchedAt.Unix(), snapshot.Fingerprint, string(postsJSON))
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// AddPendingDeletion records a deletion obligation.
func (s *SQLStore) AddPendingDeletion(ctx context.Context, pd PendingDeletion) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO pending_deletions (id, chat_id, message_id, fire_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		pd.ID, pd.ChatID, pd.MessageID, pd.FireAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record pending deletion: %w", err)
	}
	return nil
}

// DuePendingDeletions returns obligations due at or before now, oldest
// first.
func (s *SQLStore) DuePendingDeletions(ctx context.Context, now time.Time, limit int) ([]PendingDeletion, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, chat_id, message_id, fire_at FROM pending_deletions
		 WHERE fire_at <= ? ORDER BY fire_at LIMIT ?`),
		now.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending deletions: %w", err)
	}
	defer rows.Close()

	var due []PendingDeletion
	for rows.Next() {
		var (
			pd     PendingDeletion
			fireAt int64
		)
		if err := rows.Scan(&pd.ID, &pd.ChatID, &pd.MessageID, &fireAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending deletion: %w", err)
		}
		pd.FireAt = time.Unix(fireAt, 0).UTC()
		due = append(due, pd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending deletions: %w", err)
	}

	return due, nil
}

// RemovePendingDeletion discharges an obligation. Removing an unknown
// id is not an error.
func (s *SQLStore) RemovePendingDeletion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM pending_deletions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to remove pending deletion: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for the postgres dialect.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
