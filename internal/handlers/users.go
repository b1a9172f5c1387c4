package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/store"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for roster business logic
type UserService interface {
	ListUsers(ctx context.Context) (store.Window, error)
	Load(ctx context.Context) (store.Window, error)
	Refresh(ctx context.Context) (store.Window, error)
	SetFilter(ctx context.Context, key, value string) (store.Window, error)
	SetSort(ctx context.Context, key string) (store.Window, error)
	SetPage(ctx context.Context, page int) (store.Window, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, input models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Request/Response DTOs

// FilterRequest sets one filter field
type FilterRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SortRequest selects a sort key; repeating the current key flips the direction
type SortRequest struct {
	Key string `json:"key"`
}

// PageRequest moves to a page
type PageRequest struct {
	Page int `json:"page"`
}

// RosterResponse is one page of the derived view plus the criteria that produced it
type RosterResponse struct {
	Users      []models.User     `json:"users"`
	Filter     models.Filter     `json:"filter"`
	Sort       models.Sort       `json:"sort"`
	Pagination models.Pagination `json:"pagination"`
	IsLoading  bool              `json:"isLoading"`
	Loaded     bool              `json:"loaded"`
	Version    uint64            `json:"version"`
}

// windowToResponse converts a store window to a response DTO
func windowToResponse(w store.Window) *RosterResponse {
	users := w.Users
	if users == nil {
		users = []models.User{}
	}
	return &RosterResponse{
		Users:      users,
		Filter:     w.Filter,
		Sort:       w.Sort,
		Pagination: w.Pagination,
		IsLoading:  w.IsLoading,
		Loaded:     w.Loaded,
		Version:    w.Version,
	}
}

// ListUsers returns the current page of the roster
//
// @Summary List users
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	window, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// Load populates an empty roster from the record source
//
// @Summary Load the roster
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/users/load [post]
func (h *UserHandler) Load(w http.ResponseWriter, r *http.Request) {
	window, err := h.service.Load(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// Refresh replaces the roster with a fresh fetch, keeping the criteria
//
// @Summary Refresh the roster
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/users/refresh [post]
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	window, err := h.service.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// SetFilter sets the search text or status filter and returns page 1
//
// @Summary Set a filter
// @Accept json
// @Param request body FilterRequest true "Filter request"
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/users/filters [put]
func (h *UserHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	window, err := h.service.SetFilter(r.Context(), req.Key, req.Value)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// SetSort selects or toggles the sort key
//
// @Summary Set the sort key
// @Accept json
// @Param request body SortRequest true "Sort request"
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/users/sort [put]
func (h *UserHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	window, err := h.service.SetSort(r.Context(), req.Key)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// SetPage moves to a page, clamped to the available range
//
// @Summary Set the page
// @Accept json
// @Param request body PageRequest true "Page request"
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/users/page [put]
func (h *UserHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	window, err := h.service.SetPage(r.Context(), req.Page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, windowToResponse(window))
}

// GetUser retrieves a user by ID
//
// @Summary Get user by ID
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// CreateUser adds a user to the front of the roster
//
// @Summary Create a new user
// @Accept json
// @Param request body models.UserInput true "Create user request"
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /api/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UserInput
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

// UpdateUser merges the supplied fields into a user
//
// @Summary Update a user
// @Accept json
// @Param id path string true "User ID"
// @Param request body models.UserPatch true "Update user request"
// @Produce json
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [patch]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	var req models.UserPatch
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user
//
// @Summary Delete a user
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
