package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/patrikzak/attendo/internal/database"
)

// EmployeesHandler serves employee CRUD operations.
type EmployeesHandler struct {
	store database.EmployeeWriter
}

// NewEmployeesHandler creates an employees handler.
func NewEmployeesHandler(store database.EmployeeWriter) *EmployeesHandler {
	return &EmployeesHandler{store: store}
}

// List handles GET /api/v1/employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.EmployeeFilter{
		Keyword:    q.Get("keyword"),
		Department: q.Get("department"),
		Page:       intParam(q.Get("page"), 1),
		Size:       intParam(q.Get("size"), 20),
	}

	page, err := h.store.List(r.Context(), filter)
	if err != nil {
		log.Printf("failed to list employees: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	respondSuccess(w, page, "ok")
}

// Get handles GET /api/v1/employees/{employeeId}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	emp, err := h.store.Get(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to get employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to get employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	respondSuccess(w, emp, "ok")
}

type employeeCreateRequest struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Create handles POST /api/v1/employees.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EmployeeID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "employeeId and name are required")
		return
	}

	existing, err := h.store.Get(r.Context(), req.EmployeeID)
	if err != nil {
		log.Printf("failed to check employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "employee already exists")
		return
	}

	emp, err := h.store.Create(r.Context(), req.EmployeeID, req.Name, req.Department, req.Position)
	if err != nil {
		log.Printf("failed to create employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}
	respondSuccess(w, emp, "employee created")
}

type employeeUpdateRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
}

// Update handles PUT /api/v1/employees/{employeeId}.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	var req employeeUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emp, err := h.store.Update(r.Context(), employeeID, database.EmployeeUpdate{
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
	})
	if err != nil {
		log.Printf("failed to update employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to update employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	respondSuccess(w, emp, "employee updated")
}

// Delete handles DELETE /api/v1/employees/{employeeId}.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	deleted, err := h.store.Delete(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to delete employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	respondSuccess(w, nil, "employee deleted")
}

// intParam parses a positive integer query parameter with a default.
func intParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return defaultVal
	}
	return v
}
