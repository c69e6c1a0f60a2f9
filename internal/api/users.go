package api

import (
	"errors"
	"net/http"

	"github.com/unrealfeathers/home-server/internal/auth"
	"github.com/unrealfeathers/home-server/internal/user"
)

// credentials is the register/login request body.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the payload returned on successful login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleRegister creates a new account with the user role.
//
// The very first account is granted the admin role so a fresh install
// can be administered without seeding the database by hand.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeValidationError(w, "Invalid username.")
		return
	}
	if req.Password == "" {
		writeValidationError(w, "Password is required.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	role := auth.RoleUser
	if count, err := s.users.Count(r.Context()); err == nil && count == 0 {
		role = auth.RoleAdmin
	}

	u := &user.User{Username: req.Username, PasswordHash: hash, Role: role}
	if err := s.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrUsernameExists) {
			writeFailure(w, "Username already registered.")
			return
		}
		s.logger.Error("creating user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	created, err := s.users.GetByID(r.Context(), u.ID)
	if err != nil {
		s.logger.Error("rereading user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Registered.", created)
}

// handleLogin verifies credentials and issues an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	u, err := s.authenticate(r, req.Username, req.Password)
	if err != nil {
		writeFailure(w, "Invalid username or password.")
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

	writeOK(w, "Logged in.", tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// authenticate resolves an account and checks its password.
func (s *Server) authenticate(r *http.Request, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return u, nil
}

// handleUserInfo returns the authenticated account.
func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		writeUnauthorized(w, "Not authenticated.")
		return
	}
	writeOK(w, "OK", u)
}

// handleUpdateInfo lets an account change its own profile fields.
// The role is deliberately not part of the allow-list.
func (s *Server) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		writeUnauthorized(w, "Not authenticated.")
		return
	}

	var update user.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if update.Username != nil && !auth.IsValidUsername(*update.Username) {
		writeValidationError(w, "Invalid username.")
		return
	}

	if err := s.users.UpdateProfile(r.Context(), u.ID, update); err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameExists):
			writeFailure(w, "Username already registered.")
		case errors.Is(err, user.ErrNotFound):
			writeFailure(w, "User not found.")
		default:
			s.logger.Error("updating profile", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	fresh, err := s.users.GetByID(r.Context(), u.ID)
	if err != nil {
		s.logger.Error("rereading user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Profile updated.", fresh)
}

// passwordChange is the change-password request body.
type passwordChange struct {
	Password       string `json:"password"`
	NewPassword    string `json:"new_password"`
	RetypePassword string `json:"re_password"`
}

// handleChangePassword verifies the current password and sets a new one.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		writeUnauthorized(w, "Not authenticated.")
		return
	}

	var req passwordChange
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if req.NewPassword == "" {
		writeValidationError(w, "New password is required.")
		return
	}
	if req.NewPassword != req.RetypePassword {
		writeFailure(w, "Passwords do not match.")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !ok {
		writeFailure(w, "Current password is incorrect.")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	if err := s.users.UpdatePassword(r.Context(), u.ID, hash); err != nil {
		s.logger.Error("updating password", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Password changed.", nil)
}

// addUserRequest is the admin account-creation request body.
type addUserRequest struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     auth.Role `json:"role"`
}

// handleAddUser creates an account with an arbitrary role (admin only).
func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to add user.") == nil {
		return
	}

	var req addUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeValidationError(w, "Invalid username.")
		return
	}
	if req.Password == "" {
		writeValidationError(w, "Password is required.")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if !auth.IsValidRole(req.Role) {
		writeValidationError(w, "Invalid role.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	u := &user.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
	}
	if err := s.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrUsernameExists) {
			writeFailure(w, "Username already registered.")
			return
		}
		s.logger.Error("creating user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	created, err := s.users.GetByID(r.Context(), u.ID)
	if err != nil {
		s.logger.Error("rereading user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "User created.", created)
}

// handleDeleteUser removes an account by ID (admin only).
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := s.requireAdmin(w, r, "Not authorized to delete user.")
	if admin == nil {
		return
	}

	id, ok := parseIDParam(r, "user_id")
	if !ok {
		writeValidationError(w, "user_id is required.")
		return
	}
	if id == admin.ID {
		writeFailure(w, "Cannot delete your own account.")
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeFailure(w, "User not found.")
			return
		}
		s.logger.Error("deleting user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "User deleted.", nil)
}

// handleFindUser returns a single account by ID (admin only).
func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to view user.") == nil {
		return
	}

	id, ok := parseIDParam(r, "user_id")
	if !ok {
		writeValidationError(w, "user_id is required.")
		return
	}

	u, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeFailure(w, "User not found.")
			return
		}
		s.logger.Error("finding user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", u)
}

// handleUpdateUser modifies any account's profile or role (admin only).
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to update user.") == nil {
		return
	}

	id, ok := parseIDParam(r, "user_id")
	if !ok {
		writeValidationError(w, "user_id is required.")
		return
	}

	var update user.AdminUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if update.Username != nil && !auth.IsValidUsername(*update.Username) {
		writeValidationError(w, "Invalid username.")
		return
	}

	if err := s.users.UpdateAdmin(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidRole):
			writeValidationError(w, "Invalid role.")
		case errors.Is(err, user.ErrUsernameExists):
			writeFailure(w, "Username already registered.")
		case errors.Is(err, user.ErrNotFound):
			writeFailure(w, "User not found.")
		default:
			s.logger.Error("updating user", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	fresh, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("rereading user", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "User updated.", fresh)
}

// handleListUsers returns one page of accounts (admin only).
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to list users.") == nil {
		return
	}

	req, err := parsePageParams(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	filter := user.Filter{
		Username: r.URL.Query().Get("username"),
		Role:     auth.Role(r.URL.Query().Get("role")),
	}

	page, err := s.users.ListPage(r.Context(), req, filter)
	if err != nil {
		s.logger.Error("listing users", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", page)
}
