package web

import (
	"net/http"

	"rollcall/internal/adapters/http/middleware"
	"rollcall/internal/application/orchestrators"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// handleLogin handles POST /login
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{UserStore: s.stores.UserStore})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.sessions.Create(result.UserID, result.Email, result.Roles)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, s.sessions.TTL(), s.secureCookies)

	roles := make([]string, len(result.Roles))
	for i, role := range result.Roles {
		roles[i] = string(role)
	}
	writeJSON(w, http.StatusOK, loginResponse{UserID: result.UserID, Email: result.Email, Roles: roles})
}

// handleLogout handles POST /logout
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w, s.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}
