package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/dashboard"
	"employee-dashboard/internal/logging"
	"employee-dashboard/internal/store"
)

type Handler struct {
	service store.Manager
	logger  *slog.Logger
	router  chi.Router
}

func NewHandler(svc store.Manager, logger *slog.Logger) *Handler {
	h := &Handler{
		service: svc,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(requestLogger(logger))

	h.router.Get("/healthcheck", healthcheck)
	h.router.Get("/dashboard", h.handleDashboard)
	h.router.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Post("/", h.handleCreateEmployee)
		r.Get("/{employeeID}", h.handleGetEmployee)
		r.Put("/{employeeID}", h.handleUpdateEmployee)
		r.Delete("/{employeeID}", h.handleDeleteEmployee)
	})
	h.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	h.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// employeeRequest is shared by create and update; salary is a pointer so a
// missing value is told apart from zero.
type employeeRequest struct {
	Name       string   `json:"name"`
	Position   string   `json:"position"`
	Email      string   `json:"email"`
	Salary     *float64 `json:"salary"`
	Department string   `json:"department"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Salary == nil {
		writeError(w, http.StatusBadRequest, "salary is required")
		return
	}
	if *req.Salary < 0 {
		writeError(w, http.StatusBadRequest, "salary must not be negative")
		return
	}

	employee, err := h.service.Create(r.Context(), store.CreateEmployeeInput{
		Name:       req.Name,
		Position:   req.Position,
		Email:      req.Email,
		Salary:     *req.Salary,
		Department: req.Department,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := parseUintID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	employee, err := h.service.Get(r.Context(), employeeID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := parseUintID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Salary == nil {
		writeError(w, http.StatusBadRequest, "salary is required")
		return
	}

	if err := h.service.Update(r.Context(), employeeID, store.UpdateEmployeeInput{
		Name:       req.Name,
		Position:   req.Position,
		Email:      req.Email,
		Salary:     *req.Salary,
		Department: req.Department,
	}); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := parseUintID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.service.Delete(r.Context(), employeeID); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard.Summarize(employees, dashboard.DefaultBins))
}

func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperror.GetCode(err) {
	case apperror.CodeValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperror.CodeNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperror.CodeConflict:
		writeError(w, http.StatusConflict, err.Error())
	case apperror.CodeUnavailable:
		logging.FromContext(r.Context(), h.logger).Error("backing store unavailable", "error", apperror.Cause(err))
		writeError(w, http.StatusServiceUnavailable, "backing store unavailable")
	default:
		logging.FromContext(r.Context(), h.logger).Error("unexpected error", "error", apperror.Cause(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return errors.New("invalid JSON body")
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func parseUintID(raw string) (uint, error) {
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id64), nil
}
