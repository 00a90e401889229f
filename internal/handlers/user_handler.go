package handlers

import (
	"fmt"
	"net/http"

	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/pkg/validator"
)

// UserHandler handles account administration
type UserHandler struct {
	accounts *service.AccountService
	audit    *service.AuditService
}

// NewUserHandler creates a new user handler
func NewUserHandler(accounts *service.AccountService, audit *service.AuditService) *UserHandler {
	return &UserHandler{accounts: accounts, audit: audit}
}

// CreateUserRequest represents an account created by an administrator
type CreateUserRequest struct {
	Username   string       `json:"username" validate:"required,min=3,max=150"`
	Email      string       `json:"email" validate:"required,email"`
	Password   string       `json:"password" validate:"required,min=8"`
	FirstName  string       `json:"first_name" validate:"notblank"`
	LastName   string       `json:"last_name" validate:"notblank"`
	NationalID string       `json:"national_id" validate:"notblank"`
	Phone      string       `json:"phone" validate:"omitempty,max=32"`
	Roles      []authz.Role `json:"roles" validate:"dive,required"`
}

// SetActiveRequest activates or deactivates an account
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// RoleRequest names a role to grant
type RoleRequest struct {
	Role authz.Role `json:"role" validate:"notblank"`
}

// ListUsers lists accounts
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {object} DataResponse "Users"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	users, err := h.accounts.ListUsers(r.Context(), actorID, limit, offset)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, users)
}

// CreateUser creates an account with roles
// @Summary Create user
// @Description Create an active account and assign roles (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "Account"
// @Success 201 {object} DataResponse "Created user"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "User already exists"
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	for _, role := range req.Roles {
		if !role.Valid() {
			respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Unknown role %q", role), Field: "roles"})
			return
		}
	}

	user, err := h.accounts.CreateUser(r.Context(), service.NewUser{
		Username:   validator.SanitizeString(req.Username),
		Email:      validator.SanitizeEmail(req.Email),
		Password:   req.Password,
		FirstName:  validator.SanitizeString(req.FirstName),
		LastName:   validator.SanitizeString(req.LastName),
		NationalID: validator.SanitizeString(req.NationalID),
		Phone:      validator.SanitizeString(req.Phone),
		Roles:      req.Roles,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.auditAction(r, actorID, AuditActionUserCreate, fmt.Sprintf("Created user %d with roles %v", user.ID, req.Roles))
	respondWithData(w, http.StatusCreated, "User created", user)
}

// SetActive activates or deactivates an account
// @Summary Activate or deactivate user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body SetActiveRequest true "Status"
// @Success 200 {object} DataResponse "Status changed"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /users/{id}/active [put]
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req SetActiveRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.accounts.SetActive(r.Context(), actorID, userID, *req.IsActive); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.auditAction(r, actorID, AuditActionStatusChange, fmt.Sprintf("User %d active=%t", userID, *req.IsActive))
	respondWithData(w, http.StatusOK, "User status updated", map[string]any{"id": userID, "is_active": *req.IsActive})
}

// AssignRole grants a role
// @Summary Assign role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body RoleRequest true "Role"
// @Success 200 {object} DataResponse "Role assigned"
// @Failure 400 {object} ErrorResponse "Unknown role"
// @Router /users/{id}/roles [post]
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req RoleRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.accounts.AssignRole(r.Context(), actorID, userID, req.Role); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.auditAction(r, actorID, AuditActionRoleAssign, fmt.Sprintf("Role %q assigned to user %d", req.Role, userID))
	respondWithData(w, http.StatusOK, "Role assigned", map[string]any{"user_id": userID, "role": req.Role})
}

// RemoveRole takes a role away
// @Summary Remove role
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role path string true "Role name"
// @Success 200 {object} DataResponse "Role removed"
// @Failure 400 {object} ErrorResponse "Unknown role"
// @Router /users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	role := authz.Role(r.PathValue("role"))

	if err := h.accounts.RemoveRole(r.Context(), actorID, userID, role); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.auditAction(r, actorID, AuditActionRoleRemove, fmt.Sprintf("Role %q removed from user %d", role, userID))
	respondWithData(w, http.StatusOK, "Role removed", map[string]any{"user_id": userID, "role": role})
}

// ListRoles lists every role
// @Summary List roles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse "Roles"
// @Router /roles [get]
func (h *UserHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	roles, err := h.accounts.ListRoles(r.Context(), actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, roles)
}

func (h *UserHandler) auditAction(r *http.Request, actorID uint, action, details string) {
	h.audit.Log(r.Context(), &models.AuditLog{
		UserID:    &actorID,
		Action:    action,
		Resource:  "users",
		Details:   details + " by " + currentUsername(r),
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}
