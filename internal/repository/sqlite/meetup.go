package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

// Both profile joins are LEFT JOINs so a deleted partner yields NULL columns.
const meetupSelect = `SELECT m.id, m.from_profile_id, m.to_profile_id, m.status, m.message, m.created, m.responded,
	f.id, f.nickname, f.handle, f.role, f.status, f.location_name, f.last_lat, f.last_lng, f.last_active, f.avatar, f.is_visible, f.created,
	t.id, t.nickname, t.handle, t.role, t.status, t.location_name, t.last_lat, t.last_lng, t.last_active, t.avatar, t.is_visible, t.created
FROM meetup_requests m
LEFT JOIN profiles f ON f.id = m.from_profile_id
LEFT JOIN profiles t ON t.id = m.to_profile_id`

// nullableProfile holds the columns of a LEFT-joined profile.
type nullableProfile struct {
	id, nickname, handle, role, status, location sql.NullString
	lat, lng                                     sql.NullFloat64
	lastActive, visible, created                 sql.NullInt64
	avatar                                       sql.NullString
}

func (n *nullableProfile) dest() []any {
	return []any{&n.id, &n.nickname, &n.handle, &n.role, &n.status, &n.location, &n.lat, &n.lng, &n.lastActive, &n.avatar, &n.visible, &n.created}
}

func (n *nullableProfile) profile() *models.Profile {
	if !n.id.Valid {
		return nil
	}

	p := &models.Profile{
		ID:           n.id.String,
		Nickname:     n.nickname.String,
		Handle:       n.handle.String,
		Role:         models.Role(n.role.String),
		Status:       n.status.String,
		LocationName: n.location.String,
		LastActive:   fromMillis(n.lastActive.Int64),
		Avatar:       n.avatar.String,
		Visible:      n.visible.Int64 != 0,
		Created:      fromMillis(n.created.Int64),
	}
	if n.lat.Valid && n.lng.Valid {
		la, ln := n.lat.Float64, n.lng.Float64
		p.LastLat, p.LastLng = &la, &ln
	}

	return p
}

func scanMeetup(s rowScanner) (*models.MeetupView, error) {
	var (
		v         models.MeetupView
		status    string
		created   int64
		responded sql.NullInt64
		from, to  nullableProfile
	)

	dest := []any{&v.ID, &v.FromID, &v.ToID, &status, &v.Message, &created, &responded}
	dest = append(dest, from.dest()...)
	dest = append(dest, to.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	st, err := models.ParseRequestStatus(status)
	if err != nil {
		return nil, fmt.Errorf("meetup request %s: %w", v.ID, err)
	}
	v.Status = st
	v.Created = fromMillis(created)
	if responded.Valid {
		t := fromMillis(responded.Int64)
		v.Responded = &t
	}
	v.From = from.profile()
	v.To = to.profile()

	return &v, nil
}

func (r *SQLiteRepo) CreateRequest(ctx context.Context, m *models.MeetupRequest) (string, error) {
	if m == nil {
		return "", fmt.Errorf("meetup request is nil")
	}
	if m.FromID == "" || m.ToID == "" {
		return "", fmt.Errorf("meetup request needs sender and recipient")
	}

	id := uuid.NewString()
	created := m.Created
	if created.IsZero() {
		created = r.now()
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO meetup_requests (id, from_profile_id, to_profile_id, status, message, created) VALUES (?, ?, ?, ?, ?, ?)`,
		id, m.FromID, m.ToID, string(models.StatusPending), m.Message, toMillis(created))
	if err != nil {
		return "", fmt.Errorf("insert meetup request: %w", err)
	}

	m.ID = id
	m.Status = models.StatusPending
	m.Created = fromMillis(toMillis(created))
	return id, nil
}

func (r *SQLiteRepo) GetRequest(ctx context.Context, id string) (*models.MeetupView, error) {
	v, err := scanMeetup(r.conn.QueryRow(ctx, meetupSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return v, nil
}

// ListForProfile returns every request the profile sent or received, newest first.
func (r *SQLiteRepo) ListForProfile(ctx context.Context, profileID string) ([]models.MeetupView, error) {
	rows, err := r.conn.QueryRows(ctx, meetupSelect+` WHERE m.from_profile_id = ? OR m.to_profile_id = ? ORDER BY m.created DESC, m.rowid DESC`, profileID, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MeetupView
	for rows.Next() {
		v, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *v)
	}

	return out, rows.Err()
}

// UpdateStatus moves a pending request to a terminal status. The WHERE clause
// guards on pending so concurrent responses cannot both succeed.
func (r *SQLiteRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	if !models.CanTransition(models.StatusPending, status) {
		return fmt.Errorf("%w: to %q", models.ErrInvalidTransition, status)
	}

	res, err := r.conn.Exec(ctx, `UPDATE meetup_requests SET status = ?, responded = ? WHERE id = ? AND status = ?`,
		string(status), toMillis(r.now()), id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("update meetup status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	if err := r.conn.QueryRow(ctx, `SELECT status FROM meetup_requests WHERE id = ?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	return fmt.Errorf("%w: already %s", models.ErrInvalidTransition, current)
}

func (r *SQLiteRepo) DeleteRequest(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM meetup_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meetup request: %w", err)
	}

	return expectOne(res)
}
