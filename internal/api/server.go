// Package api exposes the story quality engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/domain"
	"github.com/storyforge/storyforge/internal/generate"
	"github.com/storyforge/storyforge/internal/rules"
	"github.com/storyforge/storyforge/internal/scanner"
	"github.com/storyforge/storyforge/internal/stats"
	"github.com/storyforge/storyforge/internal/store"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server is the REST API server
type Server struct {
	config    *config.Config
	store     store.Store
	generator generate.Generator
	scanner   *scanner.Scanner
	validator *rules.StoryValidator
	wsHub     *WebSocketHub

	mu      sync.RWMutex
	server  *http.Server
	running bool
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, st store.Store, gen generate.Generator, source *rules.Source) *Server {
	return &Server{
		config:    cfg,
		store:     st,
		generator: gen,
		scanner:   scanner.New(source),
		validator: rules.NewStoryValidator(source),
		wsHub:     NewWebSocketHub(),
	}
}

// Start starts the API server on the configured port
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	return s.server.ListenAndServe()
}

// Stop stops the API server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	s.wsHub.Stop()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Router returns the configured router (exposed for tests).
func (s *Server) Router() *chi.Mux {
	return s.setupRoutes()
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware(s.config.CORSAllowedOrigins))

	// Health check (public, no auth required)
	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiKeyAuthMiddleware(s.config.APIKey))

		// Notes
		r.Post("/notes/transform", s.transformNotesHandler)
		r.Post("/notes/scan", s.scanNotesHandler)

		// Stories
		r.Get("/stories", s.listStoriesHandler)
		r.Get("/stories/{id}", s.getStoryHandler)
		r.Delete("/stories/{id}", s.deleteStoryHandler)
		r.Put("/stories/{id}/test-status", s.updateTestStatusHandler)
		r.Post("/stories/{id}/validate", s.validateStoryHandler)

		// Statistics
		r.Get("/stats", s.getStatsHandler)

		// WebSocket endpoint
		r.Get("/ws", s.websocketHandler)
	})

	return r
}

// corsMiddleware creates CORS middleware with the given allowed origins
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	exactOrigins := make(map[string]bool)
	var patterns []string

	for _, origin := range allowedOrigins {
		if strings.Contains(origin, "*") {
			patterns = append(patterns, origin)
		} else {
			exactOrigins[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if origin != "" {
				if exactOrigins[origin] {
					allowed = true
				} else {
					for _, pattern := range patterns {
						if matchOriginPattern(origin, pattern) {
							allowed = true
							break
						}
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// apiKeyAuthMiddleware creates middleware that validates API key from header
func apiKeyAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// If no API key is configured, allow all requests (optional auth)
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					providedKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if providedKey != apiKey {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOriginPattern checks if an origin matches a pattern with wildcards
func matchOriginPattern(origin, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(origin, prefix)
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*")
		parts := strings.SplitN(origin, "://", 2)
		if len(parts) == 2 {
			host := strings.Split(parts[1], "/")[0]
			host = strings.Split(host, ":")[0]
			return strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".")
		}
	}
	return false
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Request/response shapes

// TransformRequest carries raw notes plus a story cap.
type TransformRequest struct {
	Notes      domain.RawNotes `json:"notes"`
	MaxStories int             `json:"max_stories"`
}

// RejectedStory pairs a draft that failed validation with its errors.
type RejectedStory struct {
	Story  domain.UserStory        `json:"story"`
	Errors []domain.ValidationError `json:"errors"`
}

// TransformResponse returns stored stories, rejected drafts, ambiguity
// flags, and processing time in seconds.
type TransformResponse struct {
	UserStories    []domain.UserStory `json:"user_stories"`
	Rejected       []RejectedStory    `json:"rejected,omitempty"`
	AmbiguityFlags []string           `json:"ambiguity_flags"`
	ProcessingTime float64            `json:"processing_time"`
}

// TestUpdateRequest carries a new test status; scenario_index is
// reporting granularity only, whole-story status is what is stored.
type TestUpdateRequest struct {
	TestStatus    domain.TestStatus `json:"test_status"`
	ScenarioIndex *int              `json:"scenario_index,omitempty"`
}

// Handlers

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "StoryForge API",
		"status":  "running",
		"version": Version,
	})
}

func (s *Server) transformNotesHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Notes.Content) == "" {
		respondError(w, http.StatusBadRequest, "notes content must not be empty")
		return
	}
	if req.MaxStories == 0 {
		req.MaxStories = s.config.DefaultMaxStories
	}
	if req.MaxStories < 1 || req.MaxStories > config.MaxStoriesCeiling {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("max_stories must be between 1 and %d", config.MaxStoriesCeiling))
		return
	}

	drafts, err := s.generator.Generate(r.Context(), req.Notes, req.MaxStories)
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("story generation failed: %v", err))
		return
	}

	stored := make([]domain.UserStory, 0, len(drafts))
	rejected := make([]RejectedStory, 0)
	for _, draft := range drafts {
		result := s.validator.Validate(draft)
		if !result.IsValid {
			rejected = append(rejected, RejectedStory{Story: draft, Errors: result.Errors})
			continue
		}

		saved, err := s.store.Insert(r.Context(), draft)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stored = append(stored, saved)
		s.BroadcastMessage("story.created", saved)
	}

	respondJSON(w, http.StatusOK, TransformResponse{
		UserStories:    stored,
		Rejected:       rejected,
		AmbiguityFlags: s.scanner.Scan(req.Notes.Content),
		ProcessingTime: time.Since(start).Seconds(),
	})
}

func (s *Server) scanNotesHandler(w http.ResponseWriter, r *http.Request) {
	var notes domain.RawNotes
	if err := json.NewDecoder(r.Body).Decode(&notes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(notes.Content) == "" {
		respondError(w, http.StatusBadRequest, "notes content must not be empty")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ambiguity_flags": s.scanner.Scan(notes.Content),
	})
}

func (s *Server) listStoriesHandler(w http.ResponseWriter, r *http.Request) {
	stories, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stories": stories,
		"count":   len(stories),
	})
}

func (s *Server) getStoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	story, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "story not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, story)
}

func (s *Server) deleteStoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "story not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.BroadcastMessage("story.deleted", map[string]string{"story_id": id})
	respondJSON(w, http.StatusOK, map[string]string{
		"message":  "story deleted successfully",
		"story_id": id,
	})
}

func (s *Server) updateTestStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TestUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.TestStatus.IsValid() {
		respondError(w, http.StatusBadRequest,
			"test_status must be one of: not_tested, passed, failed")
		return
	}

	story, err := s.store.UpdateTestStatus(r.Context(), id, req.TestStatus)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "story not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.BroadcastMessage("story.test_status", story)
	respondJSON(w, http.StatusOK, map[string]string{
		"message":  "test status updated successfully",
		"story_id": id,
	})
}

func (s *Server) validateStoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	story, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "story not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := s.validator.Validate(story)
	if result.Errors == nil {
		result.Errors = []domain.ValidationError{}
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getStatsHandler(w http.ResponseWriter, r *http.Request) {
	stories, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, stats.Aggregate(stories))
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	s.wsHub.ServeWs(w, r)
}

// BroadcastMessage sends a message to all connected WebSocket clients
func (s *Server) BroadcastMessage(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}
