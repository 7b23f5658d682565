package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"remindbot/internal/reminder"
	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Create(ctx context.Context, r reminder.Reminder) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(owner_id, channel_id, message, delivery_mode, due_at, created_at)
		 VALUES(?,?,?,?,?,?)`,
		r.OwnerID, nullStr(r.ChannelID), r.Message, string(r.Mode),
		encodeTime(r.DueAt), encodeTime(r.CreatedAt),
	)
	if err != nil {
		return 0, unavailable(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable(err)
	}
	return id, nil
}

func (s *sqliteStore) ListActive(ctx context.Context, ownerID string, now time.Time) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, channel_id, message, delivery_mode, due_at, created_at
		 FROM reminders
		 WHERE owner_id = ? AND due_at > ?
		 ORDER BY due_at ASC`,
		ownerID, encodeTime(now),
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *sqliteStore) Update(ctx context.Context, id int64, ownerID string, r reminder.Reminder) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders
		 SET message = ?, delivery_mode = ?, due_at = ?, channel_id = ?
		 WHERE id = ? AND owner_id = ?`,
		r.Message, string(r.Mode), encodeTime(r.DueAt), nullStr(r.ChannelID),
		id, ownerID,
	)
	if err != nil {
		return false, unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *sqliteStore) PopDue(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, channel_id, message, delivery_mode, due_at, created_at
		 FROM reminders
		 WHERE due_at <= ?`,
		encodeTime(now),
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *sqliteStore) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]reminder.Reminder, error) {
	var out []reminder.Reminder
	for rows.Next() {
		var (
			r       reminder.Reminder
			channel sql.NullString
			mode    string
			due     string
			created string
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &channel, &r.Message, &mode, &due, &created); err != nil {
			return nil, unavailable(err)
		}
		r.ChannelID = channel.String
		r.Mode = reminder.Mode(mode)
		var err error
		if r.DueAt, err = decodeTime(due); err != nil {
			return nil, unavailable(err)
		}
		if r.CreatedAt, err = decodeTime(created); err != nil {
			return nil, unavailable(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
