// Package cloudmctest provides a scripted in-process backend for testing
// code built on the cloudmc client.
package cloudmctest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Request is a recorded call to the fake backend.
type Request struct {
	Method          string
	Path            string
	RawQuery        string
	Operation       string
	Header          http.Header
	Body            []byte
	ServiceCode     string
	EnvironmentName string
	EntityType      string
	ID              string
}

// JSONBody decodes the recorded body, or returns nil when there was none.
func (r Request) JSONBody() any {
	if len(r.Body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil
	}
	return v
}

// Responder returns the status code and JSON body for an entity request.
type Responder func(req Request) (int, any)

// TaskStep is one scripted answer of GET /tasks/{id}. When Raw is set it is
// sent verbatim instead of the {"data": {"id","status","result"}} envelope.
type TaskStep struct {
	Status string
	Result any
	Raw    any
}

type scriptedTask struct {
	steps []TaskStep
	polls int
}

// Server is an httptest.Server speaking the services/tasks protocol.
type Server struct {
	*httptest.Server

	// APIKey, when set, is required in the MC-Api-Key header.
	APIKey string

	mu        sync.Mutex
	requests  []Request
	responder Responder
	tasks     map[string]*scriptedTask
}

// NewServer starts a fake backend. The default responder answers every
// entity request synchronously, echoing what it received.
func NewServer(apiKey string) *Server {
	s := &Server{
		APIKey:    apiKey,
		responder: Echo,
		tasks:     make(map[string]*scriptedTask),
	}

	r := chi.NewRouter()
	r.Use(s.checkAPIKey)
	r.Get("/tasks/{taskID}", s.pollTask)
	r.HandleFunc("/services/{serviceCode}/{environmentName}/{entityType}", s.handleEntity)
	r.HandleFunc("/services/{serviceCode}/{environmentName}/{entityType}/{id}", s.handleEntity)

	s.Server = httptest.NewServer(r)
	return s
}

// Respond replaces the entity responder.
func (s *Server) Respond(fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = fn
}

// AddTask registers a task answering polls with steps in order; the last
// step repeats once the script is exhausted. It returns the task id.
func (s *Server) AddTask(steps ...TaskStep) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.tasks[id] = &scriptedTask{steps: steps}
	return id
}

// Requests returns every request received so far, including task polls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// TaskPolls returns how many times the task was polled.
func (s *Server) TaskPolls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return t.polls
	}
	return 0
}

// Echo is the default Responder.
func Echo(req Request) (int, any) {
	return http.StatusOK, Immediate(map[string]any{
		"method":     req.Method,
		"entityType": req.EntityType,
		"id":         req.ID,
		"operation":  req.Operation,
		"body":       req.JSONBody(),
	})
}

// Immediate is a synchronous response carrying data.
func Immediate(data any) map[string]any {
	return map[string]any{"data": data}
}

// Pending is the initial response for a freshly started task.
func Pending(taskID string) map[string]any {
	return map[string]any{"taskId": taskID, "taskStatus": "PENDING"}
}

func (s *Server) checkAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey != "" && r.Header.Get("MC-Api-Key") != s.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	req := newRequest(r)
	req.ServiceCode = chi.URLParam(r, "serviceCode")
	req.EnvironmentName = chi.URLParam(r, "environmentName")
	req.EntityType = chi.URLParam(r, "entityType")
	req.ID = chi.URLParam(r, "id")

	s.mu.Lock()
	s.requests = append(s.requests, req)
	responder := s.responder
	s.mu.Unlock()

	status, body := responder(req)
	writeJSON(w, status, body)
}

func (s *Server) pollTask(w http.ResponseWriter, r *http.Request) {
	req := newRequest(r)
	id := chi.URLParam(r, "taskID")

	s.mu.Lock()
	s.requests = append(s.requests, req)
	task, ok := s.tasks[id]
	var step TaskStep
	if ok && len(task.steps) > 0 {
		i := task.polls
		if i >= len(task.steps) {
			i = len(task.steps) - 1
		}
		step = task.steps[i]
		task.polls++
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	if step.Raw != nil {
		writeJSON(w, http.StatusOK, step.Raw)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":     id,
			"status": step.Status,
			"result": step.Result,
		},
	})
}

func newRequest(r *http.Request) Request {
	body, _ := io.ReadAll(r.Body)
	return Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawQuery:  r.URL.RawQuery,
		Operation: r.URL.Query().Get("operation"),
		Header:    r.Header.Clone(),
		Body:      body,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
