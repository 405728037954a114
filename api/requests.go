package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

type RequestsHandler struct {
	profiles repository.ProfileRepo
	meetups  repository.MeetupRepo
	schemas  *SchemaLoader
	now      func() time.Time
}

func NewRequestsHandler(pr repository.ProfileRepo, mr repository.MeetupRepo, schemas *SchemaLoader, now func() time.Time) *RequestsHandler {
	if now == nil {
		now = time.Now
	}
	return &RequestsHandler{profiles: pr, meetups: mr, schemas: schemas, now: now}
}

type createRequestBody struct {
	ToID    string `json:"to_id"`
	Message string `json:"message"`
}

// Create sends a pending meetup request from the caller.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if !h.schemas.decodeBody(w, r, "request", &body) {
		return
	}

	me := ProfileIDFrom(r.Context())
	if body.ToID == me {
		writeError(w, "cannot send a request to yourself", http.StatusBadRequest)
		return
	}

	from, ok := loadProfile(w, r, h.profiles, me)
	if !ok {
		return
	}
	to, err := h.profiles.GetProfile(r.Context(), body.ToID)
	if err != nil {
		logger.Error("get recipient", slog.String("id", body.ToID), slog.Any("err", err))
		writeError(w, "failed to load recipient", http.StatusInternalServerError)
		return
	}
	if to == nil {
		writeError(w, "recipient not found", http.StatusNotFound)
		return
	}

	req := models.MeetupRequest{
		FromID:  me,
		ToID:    to.ID,
		Message: strings.TrimSpace(body.Message),
		Created: h.now(),
	}
	if _, err := h.meetups.CreateRequest(r.Context(), &req); err != nil {
		logger.Error("create request", slog.Any("err", err))
		writeError(w, "failed to send request", http.StatusInternalServerError)
		return
	}

	view := models.MeetupView{MeetupRequest: req, From: from, To: to}
	writeJSON(w, view.ForViewer(me, h.now()), http.StatusCreated)
}

// List returns the caller's sent and received requests, newest first. A read
// failure is logged and rendered as an empty list.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	me := ProfileIDFrom(r.Context())
	now := h.now()
	items := []models.RequestCard{}

	views, err := h.meetups.ListForProfile(r.Context(), me)
	if err != nil {
		logger.Error("list requests", slog.String("profile_id", me), slog.Any("err", err))
	}
	for _, v := range views {
		items = append(items, v.ForViewer(me, now))
	}

	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}

// Get returns one request as seen by the caller.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}

	writeJSON(w, view.ForViewer(ProfileIDFrom(r.Context()), h.now()), http.StatusOK)
}

func (h *RequestsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.StatusAccepted)
}

func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.StatusRejected)
}

// respond moves a pending request to status. Only the recipient may respond,
// and only once.
func (h *RequestsHandler) respond(w http.ResponseWriter, r *http.Request, status models.RequestStatus) {
	view, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}

	me := ProfileIDFrom(r.Context())
	if view.ToID != me {
		writeError(w, "only the recipient can respond", http.StatusForbidden)
		return
	}

	if err := h.meetups.UpdateStatus(r.Context(), view.ID, status); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTransition):
			writeError(w, "request has already been answered", http.StatusConflict)
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, "request not found", http.StatusNotFound)
		default:
			logger.Error("update request status", slog.String("id", view.ID), slog.Any("err", err))
			writeError(w, "failed to update request", http.StatusInternalServerError)
		}
		return
	}

	now := h.now()
	view.Status = status
	view.Responded = &now
	if fresh, err := h.meetups.GetRequest(r.Context(), view.ID); err == nil && fresh != nil {
		view = fresh
	}

	writeJSON(w, view.ForViewer(me, now), http.StatusOK)
}

// Delete removes a request; either participant may do so.
func (h *RequestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	view, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}

	if err := h.meetups.DeleteRequest(r.Context(), view.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "request not found", http.StatusNotFound)
			return
		}
		logger.Error("delete request", slog.String("id", view.ID), slog.Any("err", err))
		writeError(w, "failed to delete request", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestsHandler) loadForParticipant(w http.ResponseWriter, r *http.Request) (*models.MeetupView, bool) {
	id := mux.Vars(r)["id"]
	view, err := h.meetups.GetRequest(r.Context(), id)
	if err != nil {
		logger.Error("get request", slog.String("id", id), slog.Any("err", err))
		writeError(w, "failed to load request", http.StatusInternalServerError)
		return nil, false
	}
	if view == nil {
		writeError(w, "request not found", http.StatusNotFound)
		return nil, false
	}
	if !view.IsParticipant(ProfileIDFrom(r.Context())) {
		writeError(w, "not a participant of this request", http.StatusForbidden)
		return nil, false
	}

	return view, true
}
