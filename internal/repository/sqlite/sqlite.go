package sqlite

import (
	"io"
	"time"

	"log/slog"

	"github.com/garnizeh/warmconnect/internal/db"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
	now    func() time.Time
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.ProfileRepo = (*SQLiteRepo)(nil)
var _ repository.MeetupRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source used for created/responded timestamps.
func (r *SQLiteRepo) WithClock(now func() time.Time) *SQLiteRepo {
	r.now = now
	return r
}

// Timestamps are stored as unix milliseconds; 0 means unknown.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
