package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/ticket-ingest/internal/services/user"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	res, err := r.deps.Users.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.deps.Users.ListUsers(req.Context())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

func (r *Router) createUser(w http.ResponseWriter, req *http.Request) {
	var body user.CreateUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	u, err := r.deps.Users.CreateUser(req.Context(), body)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}
