// Package handler contains the HTTP handlers: request parsing, response
// writing, and nothing else. Business rules live in the service layer;
// identity resolution happens in the gate before these handlers run.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sabbir/taskboard/internal/auth"
	"github.com/sabbir/taskboard/internal/service"
)

// TaskHandler serves the task CRUD routes. Every handler derives its owner
// scope from the request context the gate populated — the handler has no
// idea which identity model is active, and no task operation can escape the
// caller's scope.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger,
	}
}

// HandleList returns the tasks visible to the caller.
//
// HTTP: GET /tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), auth.ScopeFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// createTaskRequest is the POST /tasks body.
type createTaskRequest struct {
	Title string `json:"title"`
}

// HandleCreate creates a task owned by the caller.
//
// HTTP: POST /tasks
// Body: {"title": "Buy milk"}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid task JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	task, err := h.tasks.Create(r.Context(), auth.ScopeFromContext(r.Context()), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// updateTaskRequest is the PUT /tasks/{id} body. Omitted fields are left
// unchanged; ownership cannot be patched.
type updateTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// HandleUpdate applies a partial update to one of the caller's tasks.
// A task outside the caller's scope yields the same 404 as a missing id.
//
// HTTP: PUT /tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid task JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	task, err := h.tasks.Update(r.Context(), auth.ScopeFromContext(r.Context()), chi.URLParam(r, "id"), service.TaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes one of the caller's tasks.
//
// HTTP: DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.tasks.Delete(r.Context(), auth.ScopeFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}
