// Package apitest runs an in-process stand-in for the remote task service. It
// speaks the same envelope, status codes and bearer-token rules so clients can
// be exercised without a real backend.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// Request is one call the server received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type record struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r record) task() model.Task {
	t := model.Task{
		ID:        model.ID(strconv.FormatInt(r.ID, 10)),
		Title:     r.Title,
		Status:    model.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	return t
}

type failure struct {
	status int
	body   []byte
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]int64
	records  []record
	nextID   int64
	failures map[string]failure
	requests []Request
	now      func() time.Time
}

// NewServer starts a server. Its API lives under BaseURL().
func NewServer() *Server {
	s := &Server{
		users:    make(map[string]int64),
		failures: make(map[string]failure),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}

	r := mux.NewRouter()
	r.Use(s.recordRequest)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate, s.injectFailures)
	api.HandleFunc("/tasks", s.handleIndex).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleStore).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.handleDestroy).Methods(http.MethodDelete)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers a bearer token for a user id.
func (s *Server) AddUser(token string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = userID
}

// Seed stores a pending task owned by userID and returns it.
func (s *Server) Seed(userID int64, title, description string) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(userID, title, description).task()
}

// Fail makes every request matching method and route template (for example
// "PUT /api/tasks/{id}") answer with status until Recover is called.
func (s *Server) Fail(method, template string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+template] = failure{status: status}
}

// FailWith is Fail with a raw response body.
func (s *Server) FailWith(method, template string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+template] = failure{status: status, body: []byte(body)}
}

func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Tasks returns userID's tasks in the order the index endpoint lists them.
func (s *Server) Tasks(userID int64) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, r := range s.owned(userID) {
		out = append(out, r.task())
	}
	return out
}

func (s *Server) insert(userID int64, title, description string) record {
	now := s.now()
	r := record{
		ID:        s.nextID,
		Title:     title,
		Status:    string(model.PENDING),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description != "" {
		d := description
		r.Description = &d
	}
	s.nextID++
	s.records = append(s.records, r)
	return r
}

// owned lists newest first.
func (s *Server) owned(userID int64) []record {
	var out []record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			out = append(out, s.records[i])
		}
	}
	return out
}

func (s *Server) find(id string) int {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == n {
			return i
		}
	}
	return -1
}

// ---- middleware

type userKey struct{}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.users[token]
		s.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			tpl, _ := route.GetPathTemplate()
			s.mu.Lock()
			f, ok := s.failures[r.Method+" "+tpl]
			s.mu.Unlock()
			if ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(f.status)
				if f.body != nil {
					_, _ = w.Write(f.body)
				} else {
					_, _ = w.Write([]byte(`{"message":"Server Error"}`))
				}
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userID(r *http.Request) int64 {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[token]
}

// ---- handlers

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (req taskRequest) validate() map[string][]string {
	errs := map[string][]string{}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		errs["title"] = []string{"The title field is required."}
	} else if len(*req.Title) > 255 {
		errs["title"] = []string{"The title field must not be greater than 255 characters."}
	}
	if req.Status != nil && !model.Status(*req.Status).Valid() {
		errs["status"] = []string{"The selected status is invalid."}
	}
	return errs
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	uid := s.userID(r)
	s.mu.Lock()
	list := s.owned(uid)
	s.mu.Unlock()
	if list == nil {
		list = []record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Tasks retrieved successfully.",
		"data":    list,
	})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	req.Status = nil
	if errs := req.validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	uid := s.userID(r)
	s.mu.Lock()
	created := s.insert(uid, *req.Title, desc)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully.",
		"data":    created,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	uid := s.userID(r)
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.find(id)
	var owner int64
	if i != -1 {
		owner = s.records[i].UserID
	}
	s.mu.Unlock()

	if i == -1 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if owner != uid {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "You are not allowed to edit this task."})
		return
	}

	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	rec := &s.records[i]
	rec.Title = *req.Title
	rec.Description = req.Description
	if req.Status != nil {
		rec.Status = *req.Status
	}
	rec.UpdatedAt = s.now()
	updated := *rec
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully.",
		"data":    updated,
	})
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	uid := s.userID(r)
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i == -1 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if s.records[i].UserID != uid {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "You are not allowed to delete this task."})
		return
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully."})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.users, token)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully."})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed JSON."})
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
