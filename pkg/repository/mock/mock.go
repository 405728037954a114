package mock

import (
	"context"
	"time"

	"github.com/garnizeh/warmconnect/pkg/models"
)

// Test helpers and mocks. Every method returns Err when it is set, which lets
// handler tests exercise backend failures without a database.
type Mocks struct {
	ProfRepo   *FailingProfileRepo
	MeetupRepo *FailingMeetupRepo
}

func NewMocks(err error) *Mocks {
	return &Mocks{
		ProfRepo:   &FailingProfileRepo{Err: err},
		MeetupRepo: &FailingMeetupRepo{Err: err},
	}
}

type FailingProfileRepo struct {
	Err    error
	Stored *models.Profile
}

func (m *FailingProfileRepo) CreateProfile(ctx context.Context, p *models.Profile) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	p.ID = "mock-profile"
	cp := *p
	m.Stored = &cp
	return p.ID, nil
}

func (m *FailingProfileRepo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Stored != nil && m.Stored.ID == id {
		cp := *m.Stored
		return &cp, nil
	}
	return nil, nil
}

func (m *FailingProfileRepo) ListVisible(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Stored != nil && m.Stored.Visible {
		return []models.Profile{*m.Stored}, nil
	}
	return nil, nil
}

func (m *FailingProfileRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if m.Err != nil {
		return m.Err
	}
	cp := *p
	m.Stored = &cp
	return nil
}

func (m *FailingProfileRepo) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	return m.Err
}

func (m *FailingProfileRepo) DeleteProfile(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Stored != nil && m.Stored.ID == id {
		m.Stored = nil
	}
	return nil
}

type FailingMeetupRepo struct {
	Err error
}

func (m *FailingMeetupRepo) CreateRequest(ctx context.Context, r *models.MeetupRequest) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "mock-request", nil
}

func (m *FailingMeetupRepo) GetRequest(ctx context.Context, id string) (*models.MeetupView, error) {
	return nil, m.Err
}

func (m *FailingMeetupRepo) ListForProfile(ctx context.Context, profileID string) ([]models.MeetupView, error) {
	return nil, m.Err
}

func (m *FailingMeetupRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return m.Err
}

func (m *FailingMeetupRepo) DeleteRequest(ctx context.Context, id string) error {
	return m.Err
}
