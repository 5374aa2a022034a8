package handler

import (
	"encoding/json"
	"net/http"

	"docbuilder/internal/domain"
	"docbuilder/internal/service"

	"github.com/gorilla/mux"
)

// IntegrationHandler moves templates to and from the compliance service.
type IntegrationHandler struct {
	integration *service.IntegrationService
	logger      domain.Logger
}

func NewIntegrationHandler(integration *service.IntegrationService, logger domain.Logger) *IntegrationHandler {
	return &IntegrationHandler{integration: integration, logger: logger}
}

// ListRemote returns the remote listing, or the discovery payload when the
// remote list endpoint is missing.
func (h *IntegrationHandler) ListRemote(w http.ResponseWriter, r *http.Request) {
	res, err := h.integration.ListRemote(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list compliance templates", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *IntegrationHandler) PullTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.integration.PullTemplate(r.Context(), mux.Vars(r)["remoteId"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to pull compliance template", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type pushRequest struct {
	Action string `json:"action"`
}

func (h *IntegrationHandler) PushTemplate(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" {
		req.Action = "save"
	}
	res, err := h.integration.PushTemplate(r.Context(), mux.Vars(r)["id"], req.Action)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to push template", err)
		return
	}
	if len(res) == 0 {
		res = json.RawMessage(`{"success":true}`)
	}
	writeJSON(w, http.StatusOK, res)
}
