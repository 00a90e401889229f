package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"precinct/internal/middleware"
	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	accounts *service.AccountService
	audit    *service.AuditService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService, audit *service.AuditService) *AuthHandler {
	return &AuthHandler{accounts: accounts, audit: audit}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=150"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"notblank"`
	LastName   string `json:"last_name" validate:"notblank"`
	NationalID string `json:"national_id" validate:"notblank"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
}

// LoginRequest represents a login request. Identifier is a username, email,
// phone number or national id.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"notblank"`
	Password   string `json:"password" validate:"required"`
}

// Register handles citizen registration
// @Summary Register a new user
// @Description Create a citizen account holding the base user role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} DataResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "User already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), service.NewUser{
		Username:   validator.SanitizeString(req.Username),
		Email:      validator.SanitizeEmail(req.Email),
		Password:   req.Password,
		FirstName:  validator.SanitizeString(req.FirstName),
		LastName:   validator.SanitizeString(req.LastName),
		NationalID: validator.SanitizeString(req.NationalID),
		Phone:      validator.SanitizeString(req.Phone),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), &models.AuditLog{
		UserID:    &user.ID,
		Action:    AuditActionRegister,
		Resource:  "users",
		Details:   "User registered",
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})

	respondWithData(w, http.StatusCreated, "Registration successful", user)
}

// Login handles user login
// @Summary Log in
// @Description Authenticate by username, email, phone or national id and receive an access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} DataResponse "Access token and user"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "User account is inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserInactive) {
			slog.Warn("Login failed", "identifier", req.Identifier, "error", err)
			h.audit.Log(r.Context(), &models.AuditLog{
				Action:    AuditActionLoginFailed,
				Resource:  "users",
				Details:   err.Error(),
				IPAddress: r.RemoteAddr,
				UserAgent: r.UserAgent(),
			})
		}
		respondWithAppError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), &models.AuditLog{
		UserID:    &result.User.ID,
		Action:    AuditActionLogin,
		Resource:  "users",
		Details:   "User logged in",
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})

	respondWithData(w, http.StatusOK, "Login successful", result)
}

// Me returns the authenticated user
// @Summary Current user
// @Description Get the authenticated user with its roles
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse "User with roles"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.Me(r.Context(), actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", user)
}

// currentUsername is used in audit details
func currentUsername(r *http.Request) string {
	name, _ := middleware.GetUsername(r)
	return name
}
