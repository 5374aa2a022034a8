package handler

import (
	"net/http"

	"docbuilder/internal/domain"
	"docbuilder/internal/service"
	apperrors "docbuilder/pkg/errors"
)

// SyncHandler serves the template sync endpoint shared with other apps.
// Every request must carry the sync key in X-Sync-Key.
type SyncHandler struct {
	sync   *service.SyncService
	logger domain.Logger
}

func NewSyncHandler(sync *service.SyncService, logger domain.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

type syncResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type syncList struct {
	Templates []*domain.SyncedTemplate `json:"templates"`
	Count     int                      `json:"count"`
}

func writeSyncError(w http.ResponseWriter, logger domain.Logger, msg string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err)
	}
	writeJSON(w, status, syncResponse{Error: message})
}

// RequireSyncKey rejects requests without the configured sync key
func (h *SyncHandler) RequireSyncKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sync.Authorized(r.Header.Get("X-Sync-Key")) {
			writeSyncError(w, h.logger, "Sync request rejected", apperrors.NewUnauthorizedError("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Query handles GET ?action=list|get&id=
func (h *SyncHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch q.Get("action") {
	case "list":
		templates, err := h.sync.List(r.Context())
		if err != nil {
			writeSyncError(w, h.logger, "Failed to list synced templates", err)
			return
		}
		if templates == nil {
			templates = []*domain.SyncedTemplate{}
		}
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Data: syncList{Templates: templates, Count: len(templates)}})
	case "get":
		t, err := h.sync.Get(r.Context(), q.Get("id"))
		if err != nil {
			writeSyncError(w, h.logger, "Failed to get synced template", err)
			return
		}
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Data: t})
	default:
		writeJSON(w, http.StatusBadRequest, syncResponse{Error: "Invalid action. Use: list, get"})
	}
}

type syncRequest struct {
	Action   string                    `json:"action"`
	Template *domain.SyncTemplateInput `json:"template"`
	ID       string                    `json:"id"`
}

// Mutate handles POST {action: create|update|delete}
func (h *SyncHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, syncResponse{Error: "Invalid request body"})
		return
	}

	switch req.Action {
	case "create":
		t, err := h.sync.Create(r.Context(), req.Template)
		if err != nil {
			writeSyncError(w, h.logger, "Failed to create synced template", err)
			return
		}
		writeJSON(w, http.StatusCreated, syncResponse{Success: true, Data: t})
	case "update":
		t, err := h.sync.Update(r.Context(), req.Template)
		if err != nil {
			writeSyncError(w, h.logger, "Failed to update synced template", err)
			return
		}
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Data: t})
	case "delete":
		if err := h.sync.Delete(r.Context(), req.ID); err != nil {
			writeSyncError(w, h.logger, "Failed to delete synced template", err)
			return
		}
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Message: "Template deleted"})
	default:
		writeJSON(w, http.StatusBadRequest, syncResponse{Error: "Invalid action. Use: create, update, delete"})
	}
}
