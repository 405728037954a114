package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/warmconnect/internal/config"
	"github.com/garnizeh/warmconnect/internal/db"
	"github.com/garnizeh/warmconnect/internal/i18n"
	"github.com/garnizeh/warmconnect/internal/icebreaker"
	"github.com/garnizeh/warmconnect/internal/repository/sqlite"
	"github.com/garnizeh/warmconnect/pkg/repository"
)

// Deps are the backends the HTTP handlers depend on.
type Deps struct {
	Profiles  repository.ProfileRepo
	Meetups   repository.MeetupRepo
	Generator *icebreaker.Generator
	// Now defaults to time.Now.
	Now func() time.Time
}

// SetupRoutes wires the handlers over the SQLite repository.
func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB, gen *icebreaker.Generator) (*mux.Router, error) {
	repo := sqlite.New(conn, logger)
	return NewRouter(cfg, version, buildTime, Deps{Profiles: repo, Meetups: repo, Generator: gen})
}

func NewRouter(cfg *config.Config, version, buildTime string, deps Deps) (*mux.Router, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	schemas, err := NewSchemaLoader(schemaFS)
	if err != nil {
		return nil, fmt.Errorf("load request schemas: %w", err)
	}

	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(LanguageMiddleware(i18n.Parse(cfg.Language)))

	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration, deps.Now)

	// Create handlers
	systemHandler := &SystemHandler{}
	sessionHandler := &SessionHandler{}
	profilesHandler := NewProfilesHandler(deps.Profiles, schemas, tokens, deps.Now)
	requestsHandler := NewRequestsHandler(deps.Profiles, deps.Meetups, schemas, deps.Now)
	icebreakerHandler := NewIcebreakerHandler(deps.Profiles, deps.Generator, schemas)

	// Preflight requests carry no method the other routes accept. This route
	// lets them reach CORSMiddleware, which answers them.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/profiles", profilesHandler.Register).Methods("POST")
	r.HandleFunc("/v1/encouragement", icebreakerHandler.Encouragement).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	apiV1.HandleFunc("/auth/signout", sessionHandler.Signout).Methods("POST")

	apiV1.HandleFunc("/me", profilesHandler.Me).Methods("GET")
	apiV1.HandleFunc("/me", profilesHandler.UpdateMe).Methods("PUT")
	apiV1.HandleFunc("/me/location", profilesHandler.UpdateLocation).Methods("PUT")

	apiV1.HandleFunc("/profiles", profilesHandler.List).Methods("GET")
	apiV1.HandleFunc("/profiles/{id}", profilesHandler.Get).Methods("GET")
	apiV1.HandleFunc("/profiles/{id}", profilesHandler.Delete).Methods("DELETE")

	apiV1.HandleFunc("/icebreakers", icebreakerHandler.Icebreaker).Methods("POST")

	apiV1.HandleFunc("/requests", requestsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/requests", requestsHandler.List).Methods("GET")
	apiV1.HandleFunc("/requests/{id}", requestsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/requests/{id}", requestsHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/requests/{id}/accept", requestsHandler.Accept).Methods("POST")
	apiV1.HandleFunc("/requests/{id}/reject", requestsHandler.Reject).Methods("POST")

	return r, nil
}
