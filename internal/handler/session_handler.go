package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"docbuilder/internal/domain"
	"docbuilder/internal/editor"
	"docbuilder/internal/service"

	"github.com/gorilla/mux"
)

// SessionHandler exposes editor sessions over HTTP.
type SessionHandler struct {
	sessions *service.SessionManager
	exporter *service.TemplateExporter
	render   *service.RenderService
	logger   domain.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	sessions *service.SessionManager,
	exporter *service.TemplateExporter,
	render *service.RenderService,
	logger domain.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		exporter: exporter,
		render:   render,
		logger:   logger,
	}
}

type createSessionRequest struct {
	TemplateID   string `json:"templateId"`
	Presentation bool   `json:"presentation"`
}

// CreateSession opens an editor on a new or stored template
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	st, err := h.sessions.Create(r.Context(), req.TemplateID, req.Presentation)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// ImportSession opens an editor on an imported document
func (h *SessionHandler) ImportSession(w http.ResponseWriter, r *http.Request) {
	res := h.exporter.ImportTemplateFromFile(io.LimitReader(r.Body, maxBodyBytes))
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	st := h.sessions.Open(res.Template)
	writeJSON(w, http.StatusCreated, struct {
		service.SessionState
		Warnings []string `json:"warnings,omitempty"`
	}{st, res.Warnings})
}

// GetSession returns the session state
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get session", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ApplyCommand runs one editor command. A refused command answers 422
// with the unchanged state.
func (h *SessionHandler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	var cmd editor.Command
	if err := decodeJSON(r, &cmd); err != nil || cmd.Op == "" {
		writeError(w, http.StatusBadRequest, "Invalid command")
		return
	}
	out, err := h.sessions.Apply(mux.Vars(r)["id"], cmd)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, editor.ErrUnknownCommand) {
			writeServiceError(w, h.logger, "Failed to apply command", err)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, struct {
			Error string               `json:"error"`
			State service.SessionState `json:"state"`
		}{err.Error(), out.State})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Undo reverts the last change
func (h *SessionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Undo(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to undo", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Redo reapplies the last undone change
func (h *SessionHandler) Redo(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Redo(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to redo", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SaveSession stores the session template
func (h *SessionHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	t, err := h.sessions.Save(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// RenderSession streams the rendered document including unsaved changes
func (h *SessionHandler) RenderSession(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := mux.Vars(r)["id"]
	t, err := h.sessions.Template(id)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get session", err)
		return
	}
	var buf bytes.Buffer
	if err := h.render.RenderSession(id, req.Values, &buf); err != nil {
		writeServiceError(w, h.logger, "Failed to render session", err)
		return
	}
	writeDownload(w, &service.Download{
		Filename:    service.ExportFilename(t),
		ContentType: h.render.ContentType(),
		Data:        buf.Bytes(),
	})
}

// CloseSession discards the session
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, "Failed to close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
