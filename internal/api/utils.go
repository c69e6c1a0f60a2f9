package api

import (
	"net/http"

	"github.com/unrealfeathers/home-server/internal/auth"
)

// handleToken is the OAuth2-style password-grant token endpoint.
//
// Unlike the rest of the API it takes a form-encoded body and answers
// bad credentials with a transport-level 401 plus a bearer challenge,
// so standard OAuth2 client libraries and API explorers work against it.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(w, "Malformed form body.")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeValidationError(w, "username and password are required.")
		return
	}

	u, err := s.authenticate(r, username, password)
	if err != nil {
		writeUnauthorized(w, "Incorrect username or password.")
		return
	}

	token, err := auth.GenerateAccessToken(u.AuthUser(), s.secCfg.JWT.Secret, s.secCfg.GetAccessTokenTTL())
	if err != nil {
		s.logger.Error("signing token", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	if err := s.users.UpdateLastLogin(r.Context(), u.ID); err != nil {
		s.logger.Warn("recording last login", "user", u.Username, "error", err)
	}

	// Bare OAuth2 token response, not the envelope
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
