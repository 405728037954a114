package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	dbfs "github.com/garnizeh/warmconnect/db"
	dbpkg "github.com/garnizeh/warmconnect/internal/db"
	sqlite "github.com/garnizeh/warmconnect/internal/repository/sqlite"
	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupRepo(t *testing.T) (*sqlite.SQLiteRepo, *fakeClock) {
	t.Helper()
	return setupRepoAt(t, filepath.Join(t.TempDir(), "repo.db"))
}

func setupRepoAt(t *testing.T, path string) (*sqlite.SQLiteRepo, *fakeClock) {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file:"+path, nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if _, err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return sqlite.New(d, nil).WithClock(clock.Now), clock
}

func mustCreateProfile(t *testing.T, repo *sqlite.SQLiteRepo, p models.Profile) models.Profile {
	t.Helper()
	if _, err := repo.CreateProfile(context.Background(), &p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	return p
}

func TestProfileCRUD(t *testing.T) {
	repo, clock := setupRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateProfile(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil profile")
	}
	if _, err := repo.CreateProfile(ctx, &models.Profile{Nickname: "x", Role: "doctor"}); !errors.Is(err, models.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	got, err := repo.GetProfile(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing profile, got %#v, %v", got, err)
	}

	lat, lng := 31.2, 121.4
	p := mustCreateProfile(t, repo, models.Profile{
		Nickname: "A", Handle: "abc123", Role: models.RolePatient, Status: "等待检查",
		LocationName: "B座3楼", LastLat: &lat, LastLng: &lng, Visible: true,
	})
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}

	got, err = repo.GetProfile(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetProfile: %#v, %v", got, err)
	}
	if got.Handle != "abc123" || got.Role != models.RolePatient || !got.Visible {
		t.Fatalf("unexpected stored profile %#v", got)
	}
	if got.LastLat == nil || *got.LastLat != lat {
		t.Fatalf("coordinates not stored: %#v", got.LastLat)
	}
	if got.LastActive.IsZero() || got.Created.IsZero() {
		t.Fatalf("timestamps not stored: %#v", got)
	}

	// update preserves identity
	got.Status = "正在休息"
	got.LastLat, got.LastLng = nil, nil
	if err := repo.UpdateProfile(ctx, got); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	again, _ := repo.GetProfile(ctx, p.ID)
	if again.ID != p.ID || again.Status != "正在休息" || again.LastLat != nil {
		t.Fatalf("update not applied: %#v", again)
	}
	if !again.Created.Equal(got.Created) {
		t.Fatalf("created changed on update")
	}
	list, _ := repo.ListVisible(ctx, 0, 0)
	if len(list) != 1 {
		t.Fatalf("update must not duplicate, got %d profiles", len(list))
	}

	if err := repo.UpdateProfile(ctx, &models.Profile{ID: "missing", Role: models.RoleVolunteer}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	at := clock.Now()
	if err := repo.UpdateLocation(ctx, p.ID, 1.5, 2.5, at); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	moved, _ := repo.GetProfile(ctx, p.ID)
	if moved.LastLng == nil || *moved.LastLng != 2.5 || !moved.LastActive.Equal(at) {
		t.Fatalf("location not refreshed: %#v", moved)
	}
	if err := repo.UpdateLocation(ctx, "missing", 0, 0, at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListVisible_OrderAndVisibility(t *testing.T) {
	repo, clock := setupRepo(t)
	ctx := context.Background()

	base := clock.Now()
	old := mustCreateProfile(t, repo, models.Profile{Nickname: "old", Role: models.RolePatient, Visible: true, LastActive: base.Add(-2 * time.Hour)})
	hidden := mustCreateProfile(t, repo, models.Profile{Nickname: "hidden", Role: models.RoleCaregiver, Visible: false, LastActive: base})
	recent := mustCreateProfile(t, repo, models.Profile{Nickname: "recent", Role: models.RoleVolunteer, Visible: true, LastActive: base.Add(-time.Minute)})

	list, err := repo.ListVisible(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 visible profiles, got %d", len(list))
	}
	if list[0].ID != recent.ID || list[1].ID != old.ID {
		t.Fatalf("unexpected order: %s, %s", list[0].Nickname, list[1].Nickname)
	}
	for _, p := range list {
		if p.ID == hidden.ID {
			t.Fatalf("hidden profile listed")
		}
	}

	page, _ := repo.ListVisible(ctx, 1, 1)
	if len(page) != 1 || page[0].ID != old.ID {
		t.Fatalf("unexpected page %#v", page)
	}
}

func TestDeleteProfile_RemovesFromListing(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a := mustCreateProfile(t, repo, models.Profile{Nickname: "A", Role: models.RolePatient, Visible: true})
	b := mustCreateProfile(t, repo, models.Profile{Nickname: "B", Role: models.RoleVolunteer, Visible: true})

	if err := repo.DeleteProfile(ctx, a.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	list, _ := repo.ListVisible(ctx, 0, 0)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("deleted profile still listed: %#v", list)
	}
	if got, _ := repo.GetProfile(ctx, a.ID); got != nil {
		t.Fatalf("deleted profile still fetchable")
	}
	if err := repo.DeleteProfile(ctx, a.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListForProfile_FilterAndOrder(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a := mustCreateProfile(t, repo, models.Profile{Nickname: "A", Role: models.RolePatient, Visible: true})
	b := mustCreateProfile(t, repo, models.Profile{Nickname: "B", Role: models.RoleVolunteer, Visible: true})
	c := mustCreateProfile(t, repo, models.Profile{Nickname: "C", Role: models.RoleCaregiver, Visible: true})

	send := func(from, to models.Profile, msg string) string {
		m := &models.MeetupRequest{FromID: from.ID, ToID: to.ID, Message: msg}
		id, err := repo.CreateRequest(ctx, m)
		if err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
		if m.Status != models.StatusPending {
			t.Fatalf("new request must be pending, got %q", m.Status)
		}
		return id
	}

	first := send(b, a, "1")
	_ = send(b, c, "unrelated")
	third := send(a, c, "3")

	list, err := repo.ListForProfile(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListForProfile: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 requests for A, got %d", len(list))
	}
	if list[0].ID != third || list[1].ID != first {
		t.Fatalf("expected newest first, got %s then %s", list[0].Message, list[1].Message)
	}
	for _, v := range list {
		if !v.IsParticipant(a.ID) {
			t.Fatalf("request %s does not involve A", v.ID)
		}
		if v.From == nil || v.To == nil {
			t.Fatalf("expected joined profiles, got %#v", v)
		}
	}
	if list[1].From.Nickname != "B" || list[1].To.Nickname != "A" {
		t.Fatalf("join mismatch: %#v", list[1])
	}

	if _, err := repo.CreateRequest(ctx, &models.MeetupRequest{FromID: a.ID}); err == nil {
		t.Fatalf("expected error for request without recipient")
	}
}

func TestUpdateStatus_TerminalTransitions(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a := mustCreateProfile(t, repo, models.Profile{Nickname: "A", Role: models.RolePatient, Visible: true})
	b := mustCreateProfile(t, repo, models.Profile{Nickname: "B", Role: models.RoleVolunteer, Visible: true})

	for _, target := range []models.RequestStatus{models.StatusAccepted, models.StatusRejected} {
		id, err := repo.CreateRequest(ctx, &models.MeetupRequest{FromID: b.ID, ToID: a.ID, Message: "hi"})
		if err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}

		if err := repo.UpdateStatus(ctx, id, models.StatusPending); !errors.Is(err, models.ErrInvalidTransition) {
			t.Fatalf("pending -> pending should be refused, got %v", err)
		}
		if err := repo.UpdateStatus(ctx, id, target); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", target, err)
		}

		for _, next := range []models.RequestStatus{models.StatusAccepted, models.StatusRejected} {
			if err := repo.UpdateStatus(ctx, id, next); !errors.Is(err, models.ErrInvalidTransition) {
				t.Fatalf("%s -> %s should be refused, got %v", target, next, err)
			}
		}

		v, err := repo.GetRequest(ctx, id)
		if err != nil || v == nil {
			t.Fatalf("GetRequest: %#v, %v", v, err)
		}
		if v.Status != target || v.Responded == nil {
			t.Fatalf("expected %s with responded time, got %#v", target, v.MeetupRequest)
		}
	}

	if err := repo.UpdateStatus(ctx, "missing", models.StatusAccepted); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDanglingPartnerAndDelete(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a := mustCreateProfile(t, repo, models.Profile{Nickname: "A", Role: models.RolePatient, Visible: true})
	b := mustCreateProfile(t, repo, models.Profile{Nickname: "B", Role: models.RoleVolunteer, Visible: true})
	id, err := repo.CreateRequest(ctx, &models.MeetupRequest{FromID: b.ID, ToID: a.ID, Message: "hi"})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if err := repo.DeleteProfile(ctx, b.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}

	list, err := repo.ListForProfile(ctx, a.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("request should survive partner deletion: %#v, %v", list, err)
	}
	if list[0].From != nil {
		t.Fatalf("expected nil sender profile, got %#v", list[0].From)
	}
	if list[0].To == nil || list[0].To.ID != a.ID {
		t.Fatalf("expected recipient joined, got %#v", list[0].To)
	}

	if err := repo.DeleteRequest(ctx, id); err != nil {
		t.Fatalf("DeleteRequest: %v", err)
	}
	if v, _ := repo.GetRequest(ctx, id); v != nil {
		t.Fatalf("deleted request still fetchable")
	}
	if err := repo.DeleteRequest(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRequest_RejectsUnknownStoredStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")
	repo, _ := setupRepoAt(t, path)
	ctx := context.Background()

	a := mustCreateProfile(t, repo, models.Profile{Nickname: "A", Role: models.RolePatient, Visible: true})
	b := mustCreateProfile(t, repo, models.Profile{Nickname: "B", Role: models.RoleVolunteer, Visible: true})
	id, err := repo.CreateRequest(ctx, &models.MeetupRequest{FromID: b.ID, ToID: a.ID})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	// a second handle that skips CHECK constraints stands in for a row
	// written by an older or foreign tool
	raw, err := dbpkg.New(ctx, "file:"+path+"?_pragma=ignore_check_constraints(1)", nil)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec(ctx, `UPDATE meetup_requests SET status = 'cancelled' WHERE id = ?`, id); err != nil {
		t.Fatalf("corrupt status: %v", err)
	}

	if v, err := repo.GetRequest(ctx, id); !errors.Is(err, models.ErrInvalidStatus) || v != nil {
		t.Fatalf("expected ErrInvalidStatus, got %#v, %v", v, err)
	}
	if _, err := repo.ListForProfile(ctx, a.ID); !errors.Is(err, models.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus from list, got %v", err)
	}
}
