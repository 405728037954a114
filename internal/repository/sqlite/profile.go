package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

const profileColumns = `id, nickname, handle, role, status, location_name, last_lat, last_lng, last_active, avatar, is_visible, created`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (*models.Profile, error) {
	var (
		p          models.Profile
		role       string
		lat, lng   sql.NullFloat64
		lastActive int64
		visible    int64
		created    int64
	)
	if err := s.Scan(&p.ID, &p.Nickname, &p.Handle, &role, &p.Status, &p.LocationName, &lat, &lng, &lastActive, &p.Avatar, &visible, &created); err != nil {
		return nil, err
	}

	p.Role = models.Role(role)
	if lat.Valid && lng.Valid {
		la, ln := lat.Float64, lng.Float64
		p.LastLat, p.LastLng = &la, &ln
	}
	p.LastActive = fromMillis(lastActive)
	p.Visible = visible != 0
	p.Created = fromMillis(created)

	return &p, nil
}

func nullCoord(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRepo) CreateProfile(ctx context.Context, p *models.Profile) (string, error) {
	if p == nil {
		return "", fmt.Errorf("profile is nil")
	}
	if !p.Role.Valid() {
		return "", fmt.Errorf("create profile: %w", models.ErrInvalidRole)
	}

	id := uuid.NewString()
	now := r.now()
	lastActive := p.LastActive
	if lastActive.IsZero() {
		lastActive = now
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Nickname, p.Handle, string(p.Role), p.Status, p.LocationName,
		nullCoord(p.LastLat), nullCoord(p.LastLng), toMillis(lastActive), p.Avatar, boolInt(p.Visible), toMillis(now))
	if err != nil {
		return "", fmt.Errorf("insert profile: %w", err)
	}

	p.ID = id
	p.LastActive = fromMillis(toMillis(lastActive))
	p.Created = fromMillis(toMillis(now))
	return id, nil
}

func (r *SQLiteRepo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

func (r *SQLiteRepo) ListVisible(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+profileColumns+` FROM profiles WHERE is_visible = 1 ORDER BY last_active DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *p)
	}

	return out, rows.Err()
}

// UpdateProfile overwrites the editable fields of an existing profile.
// The id and creation time are never changed.
func (r *SQLiteRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("update profile: %w", models.ErrInvalidRole)
	}

	res, err := r.conn.Exec(ctx, `UPDATE profiles SET nickname = ?, handle = ?, role = ?, status = ?, location_name = ?, last_lat = ?, last_lng = ?, last_active = ?, avatar = ?, is_visible = ? WHERE id = ?`,
		p.Nickname, p.Handle, string(p.Role), p.Status, p.LocationName,
		nullCoord(p.LastLat), nullCoord(p.LastLng), toMillis(p.LastActive), p.Avatar, boolInt(p.Visible), p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return expectOne(res)
}

func (r *SQLiteRepo) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE profiles SET last_lat = ?, last_lng = ?, last_active = ? WHERE id = ?`, lat, lng, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}

	return expectOne(res)
}

// DeleteProfile removes the row permanently. Requests that reference it are
// left untouched and will join to a nil partner.
func (r *SQLiteRepo) DeleteProfile(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if err := expectOne(res); err != nil {
		return err
	}

	r.logger.Info("profile deleted", "id", id)
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}
