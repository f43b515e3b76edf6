package tasks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lab4/taskapi"
	"github.com/lab4/taskapi/modules/jsonschema"
)

const (
	msgWelcome      = "Welcome to the Task API!"
	msgNotFound     = "Task not found."
	msgIDExists     = "Task ID already exists."
	msgDeleted      = "Task deleted successfully."
	msgNoTasksFound = "No tasks found."

	maxBodyBytes = 1 << 20
)

// Handler serves the task HTTP operations over a Store.
type Handler struct {
	store   Store
	schemas *payloadSchemas
	logger  taskapi.Logger
}

// NewHandler compiles the payload schemas on service and returns a handler
// over store. A service can back only one handler since schema URLs are fixed.
func NewHandler(store Store, service jsonschema.JSONSchemaService, logger taskapi.Logger) (*Handler, error) {
	schemas, err := compilePayloadSchemas(service)
	if err != nil {
		return nil, err
	}
	return &Handler{store: store, schemas: schemas, logger: logger}, nil
}

// Routes registers the task routes on r, relative to its mount point.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tasks", h.listTasks)
	r.Post("/tasks", h.createTask)
	r.Get("/tasks/{task_id}", h.getTask)
	r.Patch("/tasks/{task_id}", h.updateTask)
	r.Delete("/tasks/{task_id}", h.deleteTask)
}

// Root answers the deployment probe.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": msgWelcome})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.store.List(r.Context())
	if len(tasks) == 0 {
		// 204 responses cannot carry a body.
		h.logger.Debug(msgNoTasksFound, "requestID", middleware.GetReqID(r.Context()))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tasks": tasks})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	task, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "task": task})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if details := h.schemas.check(h.schemas.create, body); details != nil {
		writeValidation(w, details)
		return
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		writeValidation(w, decodeDetails(err))
		return
	}

	created, err := h.store.Create(r.Context(), task)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("Task created", "taskID", created.ID, "requestID", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "task": created})
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if details := h.schemas.check(h.schemas.patch, body); details != nil {
		writeValidation(w, details)
		return
	}

	var patch TaskPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeValidation(w, decodeDetails(err))
		return
	}

	updated, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("Task updated", "taskID", id, "requestID", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "task": updated})
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("Task deleted", "taskID", id, "requestID", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": msgDeleted})
}

// taskID parses the path id, writing a 422 when it is not an integer.
func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "task_id"))
	if err != nil {
		writeValidation(w, pathIDDetail())
		return 0, false
	}
	return id, true
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeValidation(w, []ValidationDetail{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}})
		return nil, false
	}
	return body, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": msgNotFound})
	case errors.Is(err, ErrTaskIDExists):
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": msgIDExists})
	default:
		h.logger.Error("Task store failure", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "Internal Server Error"})
	}
}

func writeValidation(w http.ResponseWriter, details []ValidationDetail) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": details})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
