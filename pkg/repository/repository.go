package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/warmconnect/pkg/models"
)

// ErrNotFound is returned by mutating operations when the target row does not exist.
// Lookups return nil, nil instead.
var ErrNotFound = errors.New("not found")

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type ProfileRepo interface {
	CreateProfile(ctx context.Context, p *models.Profile) (string, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ListVisible(ctx context.Context, limit, offset int) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error
	DeleteProfile(ctx context.Context, id string) error
}

type MeetupRepo interface {
	CreateRequest(ctx context.Context, m *models.MeetupRequest) (string, error)
	GetRequest(ctx context.Context, id string) (*models.MeetupView, error)
	ListForProfile(ctx context.Context, profileID string) ([]models.MeetupView, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	DeleteRequest(ctx context.Context, id string) error
}
