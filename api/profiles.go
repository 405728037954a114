package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

type ProfilesHandler struct {
	profiles repository.ProfileRepo
	schemas  *SchemaLoader
	tokens   *TokenIssuer
	now      func() time.Time
}

func NewProfilesHandler(pr repository.ProfileRepo, schemas *SchemaLoader, tokens *TokenIssuer, now func() time.Time) *ProfilesHandler {
	if now == nil {
		now = time.Now
	}
	return &ProfilesHandler{profiles: pr, schemas: schemas, tokens: tokens, now: now}
}

type profileRequest struct {
	Nickname     string   `json:"nickname"`
	Handle       string   `json:"handle"`
	Role         string   `json:"role"`
	Status       string   `json:"status"`
	LocationName string   `json:"location_name"`
	Avatar       string   `json:"avatar"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Visible      *bool    `json:"is_visible"`
}

// apply copies the editable fields onto p. The avatar is regenerated unless supplied.
func (req profileRequest) apply(p *models.Profile, role models.Role, now time.Time) {
	p.Nickname = strings.TrimSpace(req.Nickname)
	p.Handle = strings.TrimSpace(req.Handle)
	p.Role = role
	p.Status = strings.TrimSpace(req.Status)
	p.LocationName = strings.TrimSpace(req.LocationName)
	p.LastActive = now

	if req.Avatar != "" {
		p.Avatar = req.Avatar
	} else {
		p.Avatar = models.AvatarURL(p.WithDefaults().Nickname + strconv.FormatInt(now.UnixMilli(), 10))
	}
	if req.Lat != nil && req.Lng != nil {
		lat, lng := *req.Lat, *req.Lng
		p.LastLat, p.LastLng = &lat, &lng
	}
	if req.Visible != nil {
		p.Visible = *req.Visible
	}
}

type registerResponse struct {
	Profile models.Profile `json:"profile"`
	Token   string         `json:"token"`
}

// profileCard is a directory entry.
type profileCard struct {
	models.Profile
	Presence models.Presence `json:"presence"`
	IsMe     bool            `json:"is_me"`
}

func (h *ProfilesHandler) card(p models.Profile, viewerID string, now time.Time) profileCard {
	c := profileCard{
		Profile:  p.WithDefaults(),
		Presence: models.PresenceAt(p.LastActive, now),
		IsMe:     p.ID == viewerID,
	}
	if !c.IsMe {
		c.Profile = c.Profile.Redacted()
	}
	return c
}

// Register creates a profile and returns it together with a session token.
func (h *ProfilesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.schemas.decodeBody(w, r, "profile", &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := models.Profile{Visible: true}
	req.apply(&p, role, h.now())

	if _, err := h.profiles.CreateProfile(r.Context(), &p); err != nil {
		logger.Error("create profile", slog.Any("err", err))
		writeError(w, "failed to create profile", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(p.ID)
	if err != nil {
		logger.Error("issue token", slog.Any("err", err))
		writeError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, registerResponse{Profile: p.WithDefaults(), Token: token}, http.StatusCreated)
}

// Me restores the caller's session: it returns the caller's own profile.
func (h *ProfilesHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	writeJSON(w, me.WithDefaults(), http.StatusOK)
}

// UpdateMe edits the caller's profile in place.
func (h *ProfilesHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.schemas.decodeBody(w, r, "profile", &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	me, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	req.apply(me, role, h.now())
	if err := h.profiles.UpdateProfile(r.Context(), me); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "profile not found", http.StatusNotFound)
			return
		}
		logger.Error("update profile", slog.String("id", me.ID), slog.Any("err", err))
		writeError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, me.WithDefaults(), http.StatusOK)
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation records the caller's coordinates and refreshes last_active.
func (h *ProfilesHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !h.schemas.decodeBody(w, r, "location", &req) {
		return
	}

	err := h.profiles.UpdateLocation(r.Context(), ProfileIDFrom(r.Context()), req.Lat, req.Lng, h.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "profile not found", http.StatusNotFound)
			return
		}
		logger.Error("update location", slog.Any("err", err))
		writeError(w, "failed to update location", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List returns the visible profiles, most recently active first. A read
// failure is logged and rendered as an empty list.
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 100
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	viewer := ProfileIDFrom(r.Context())
	now := h.now()
	items := []profileCard{}

	profiles, err := h.profiles.ListVisible(r.Context(), limit, offset)
	if err != nil {
		logger.Error("list profiles", slog.Any("err", err))
	}
	for _, p := range profiles {
		items = append(items, h.card(p, viewer, now))
	}

	writeJSON(w, map[string]any{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}, http.StatusOK)
}

// Get returns one public profile card.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		logger.Error("get profile", slog.String("id", id), slog.Any("err", err))
		writeError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}

	writeJSON(w, h.card(*p, ProfileIDFrom(r.Context()), h.now()), http.StatusOK)
}

// Delete permanently removes another profile. Callers cannot delete themselves.
func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == ProfileIDFrom(r.Context()) {
		writeError(w, "cannot delete your own profile", http.StatusBadRequest)
		return
	}

	if err := h.profiles.DeleteProfile(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "profile not found", http.StatusNotFound)
			return
		}
		logger.Error("delete profile", slog.String("id", id), slog.Any("err", err))
		writeError(w, "failed to delete profile", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadCaller fetches the authenticated profile, writing 404 when it no longer exists.
func (h *ProfilesHandler) loadCaller(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	return loadProfile(w, r, h.profiles, ProfileIDFrom(r.Context()))
}

func loadProfile(w http.ResponseWriter, r *http.Request, repo repository.ProfileRepo, id string) (*models.Profile, bool) {
	p, err := repo.GetProfile(r.Context(), id)
	if err != nil {
		logger.Error("get profile", slog.String("id", id), slog.Any("err", err))
		writeError(w, "failed to load profile", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return nil, false
	}

	return p, true
}
