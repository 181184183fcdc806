// Package directorytest provides an in-process fake of the remote membership
// directory for tests.
package directorytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Invite is the fake's stored view of an invitation.
type Invite struct {
	InviteID         string `json:"invite_id"`
	InviteeEmail     string `json:"invitee_email"`
	Status           string `json:"status"`
	InviterAccountID string `json:"inviter_account_id"`
}

// CreatedInvite records one create-invite request body.
type CreatedInvite struct {
	InviterAccountID string   `json:"inviter_account_id"`
	InviterUserID    string   `json:"inviter_user_id"`
	AccountIDs       []string `json:"account_ids"`
	Invitees         []struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"invitees"`
	RoleID string `json:"role_id"`
}

// Server is a fake directory. Configure the exported fields before use;
// afterwards read them only through the accessor methods.
type Server struct {
	*httptest.Server

	Version   string
	Username  string
	Password  string
	Token     string
	UserID    string
	AccountID string

	mu       sync.Mutex
	members  []string
	invites  []Invite
	created  []CreatedInvite
	deleted  []string
	calls    []string
	failures map[string]int
	nextID   int
}

// New starts a fake directory serving under /v1.
func New() *Server {
	s := &Server{
		Version:   "v1",
		Username:  "ops@example.com",
		Password:  "secret",
		Token:     "token-1",
		UserID:    "u-1",
		AccountID: "a-1",
		failures:  map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{ver}/svc-auth/login", s.login)
	mux.HandleFunc("GET /{ver}/svc-account/user", s.authed("user", s.user))
	mux.HandleFunc("GET /{ver}/svc-account/invites", s.authed("list_invites", s.listInvites))
	mux.HandleFunc("POST /{ver}/svc-account/invites", s.authed("create_invite", s.createInvite))
	mux.HandleFunc("DELETE /{ver}/svc-account/invites/{id}", s.authed("delete_invite", s.deleteInvite))
	mux.HandleFunc("GET /{ver}/svc-account/accounts/{id}/members", s.authed("list_members", s.listMembers))

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the versioned root to hand to directory.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/" + s.Version
}

// Host is the host:port part, for JobConfig.APIHost.
func (s *Server) Host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// AddMember gives email standing access to the account.
func (s *Server) AddMember(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, email)
}

// AddInvite stores an existing invitation.
func (s *Server) AddInvite(in Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites = append(s.invites, in)
}

// Fail makes the named operation answer with status until Fail is called
// again with 0. Operation names: login, user, list_invites, create_invite,
// delete_invite, list_members.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, op)
		return
	}
	s.failures[op] = status
}

// Calls lists handled operations in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Created lists create-invite request bodies in order.
func (s *Server) Created() []CreatedInvite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CreatedInvite(nil), s.created...)
}

// CreatedEmails lists invited emails in order.
func (s *Server) CreatedEmails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.created {
		for _, in := range c.Invitees {
			out = append(out, in.Email)
		}
	}
	return out
}

// Deleted lists deleted invite ids in order.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Mutations counts create and delete calls.
func (s *Server) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created) + len(s.deleted)
}

func (s *Server) record(op string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	status, ok := s.failures[op]
	return status, ok
}

func (s *Server) authed(op string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, ok := s.record(op); ok {
			writeJSON(w, status, map[string]string{"error": op + " failed"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		h(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.record("login"); ok {
		writeJSON(w, status, map[string]string{"error": "login failed"})
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.Username != s.Username || req.Password != s.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": s.Token})
}

func (s *Server) user(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"id":                 s.UserID,
		"primary_account_id": s.AccountID,
	})
}

func (s *Server) listInvites(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]Invite{}, s.invites...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"invites": out})
}

func (s *Server) createInvite(w http.ResponseWriter, r *http.Request) {
	var req CreatedInvite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	s.mu.Lock()
	s.created = append(s.created, req)
	var ids []map[string]string
	for _, in := range req.Invitees {
		s.nextID++
		id := fmt.Sprintf("inv-%d", s.nextID)
		s.invites = append(s.invites, Invite{
			InviteID:         id,
			InviteeEmail:     in.Email,
			Status:           "pending",
			InviterAccountID: req.InviterAccountID,
		})
		ids = append(ids, map[string]string{"invite_id": id})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"invites": ids})
}

func (s *Server) deleteInvite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	s.deleted = append(s.deleted, id)
	kept := s.invites[:0]
	for _, in := range s.invites {
		if in.InviteID != id {
			kept = append(kept, in)
		}
	}
	s.invites = kept
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != s.AccountID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such account"})
		return
	}

	s.mu.Lock()
	users := make([]map[string]any, 0, len(s.members))
	for _, m := range s.members {
		users = append(users, map[string]any{"user": map[string]string{"email": m}})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
