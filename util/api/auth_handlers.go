package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"events-social-network/database"
	"events-social-network/models"
	"events-social-network/util"
)

// RegisterHandler handles user registration.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		http.Error(w, "Email, password, and username are required", http.StatusBadRequest)
		return
	}
	switch req.AccountType {
	case "", models.AccountPersonal, models.AccountBusiness:
	default:
		http.Error(w, "account_type must be personal or business", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.WithError(err).Error("hashing password")
		http.Error(w, "Error processing password", http.StatusInternalServerError)
		return
	}

	user, err := s.store.CreateUser(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Avatar:       req.Avatar,
		AccountType:  req.AccountType,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			http.Error(w, "Username or email already taken", http.StatusConflict)
			return
		}
		s.writeError(w, err, "Failed to register user")
		return
	}

	token, expires, err := s.sessions.Create(user.ID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("session after registration")
	} else {
		util.SetCookie(w, token, expires)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")

	writeJSON(w, http.StatusCreated, user.ToResponse())
}

// LoginHandler handles user login by username or email.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		http.Error(w, "Username/email and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByLogin(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
			return
		}
		s.writeError(w, err, "Database error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.WithField("login", identifier).Debug("login failed")
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	token, expires, err := s.sessions.Create(user.ID)
	if err != nil {
		s.writeError(w, err, "Failed to create session")
		return
	}
	util.SetCookie(w, token, expires)

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// LogoutHandler ends the current session.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(util.SessionCookieName)
	if err != nil {
		http.Error(w, "No active session", http.StatusUnauthorized)
		return
	}

	s.sessions.Delete(cookie.Value)
	util.ClearCookie(w)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// WhoAmIHandler returns the authenticated user.
func (s *Server) WhoAmIHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user.ToResponse())
}
