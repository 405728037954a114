package api

import (
	"net/http"

	"github.com/garnizeh/warmconnect/internal/icebreaker"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

type IcebreakerHandler struct {
	profiles  repository.ProfileRepo
	generator *icebreaker.Generator
	schemas   *SchemaLoader
}

func NewIcebreakerHandler(pr repository.ProfileRepo, gen *icebreaker.Generator, schemas *SchemaLoader) *IcebreakerHandler {
	if gen == nil {
		gen = icebreaker.New(nil, 0, logger)
	}
	return &IcebreakerHandler{profiles: pr, generator: gen, schemas: schemas}
}

type messageResponse struct {
	Message string `json:"message"`
}

type icebreakerRequest struct {
	TargetID string `json:"target_id"`
}

// Icebreaker drafts a greeting from the caller to the target profile.
func (h *IcebreakerHandler) Icebreaker(w http.ResponseWriter, r *http.Request) {
	var req icebreakerRequest
	if !h.schemas.decodeBody(w, r, "icebreaker", &req) {
		return
	}

	me, ok := loadProfile(w, r, h.profiles, ProfileIDFrom(r.Context()))
	if !ok {
		return
	}
	target, ok := loadProfile(w, r, h.profiles, req.TargetID)
	if !ok {
		return
	}

	msg := h.generator.Icebreaker(r.Context(), LangFrom(r.Context()), me.Role, target.Role, target.WithDefaults().Status)
	writeJSON(w, messageResponse{Message: msg}, http.StatusOK)
}

// Encouragement returns a short line of daily encouragement.
func (h *IcebreakerHandler) Encouragement(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, messageResponse{Message: h.generator.Encouragement(r.Context(), LangFrom(r.Context()))}, http.StatusOK)
}
