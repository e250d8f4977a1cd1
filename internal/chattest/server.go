// Package chattest provides a fake Shoplite chat service for tests.
package chattest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReplyFunc decides how the fake service answers a prompt. A string body is
// written verbatim; anything else is JSON-encoded.
type ReplyFunc func(prompt string) (status int, body any)

// Request is one request received by the fake service.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Body is the decoded JSON body, nil for requests without one.
	Body map[string]any
}

// Prompt returns the "prompt" field of the request body.
func (r Request) Prompt() (string, bool) {
	s, ok := r.Body["prompt"].(string)
	return s, ok
}

// Server is an httptest.Server routing /chat and /health.
type Server struct {
	*httptest.Server

	reply ReplyFunc

	mu       sync.Mutex
	requests []Request
	healthy  bool
}

// NewServer starts a fake service. A nil reply defaults to Echo.
// The caller must Close it.
func NewServer(reply ReplyFunc) *Server {
	if reply == nil {
		reply = Echo
	}
	s := &Server{reply: reply, healthy: true}
	s.Server = httptest.NewServer(s.buildRouter())
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.record(r, nil)
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	s.record(r, body)

	prompt, _ := body["prompt"].(string)
	status, reply := s.reply(prompt)

	if raw, ok := reply.(string); ok {
		w.WriteHeader(status)
		w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.record(r, nil)

	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()

	if !healthy {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) record(r *http.Request, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
}

// SetHealthy toggles the /health answer between 200 and 503.
func (s *Server) SetHealthy(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = ok
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Echo answers {"response": "echo: <prompt>"}.
func Echo(prompt string) (int, any) {
	return http.StatusOK, map[string]any{"response": "echo: " + prompt}
}

// Reply answers every prompt with the given JSON body and a 200.
func Reply(body any) ReplyFunc {
	return func(string) (int, any) { return http.StatusOK, body }
}

// Status answers every prompt with code and a plain-text body.
func Status(code int) ReplyFunc {
	return func(string) (int, any) { return code, http.StatusText(code) }
}

// Raw answers every prompt with the given status and verbatim body.
func Raw(status int, body string) ReplyFunc {
	return func(string) (int, any) { return status, body }
}
