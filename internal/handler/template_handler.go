// Package handler provides HTTP handlers for the API.
package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"docbuilder/internal/domain"
	"docbuilder/internal/service"

	"github.com/gorilla/mux"
)

// TemplateHandler serves the stored templates and their exports.
type TemplateHandler struct {
	storage  *service.TemplateStorage
	exporter *service.TemplateExporter
	render   *service.RenderService
	share    *service.ShareService
	logger   domain.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(
	storage *service.TemplateStorage,
	exporter *service.TemplateExporter,
	render *service.RenderService,
	share *service.ShareService,
	logger domain.Logger,
) *TemplateHandler {
	return &TemplateHandler{
		storage:  storage,
		exporter: exporter,
		render:   render,
		share:    share,
		logger:   logger,
	}
}

// ListTemplates returns every stored template
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	res, err := h.storage.LoadTemplates(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to load templates", err)
		return
	}
	if res.Templates == nil {
		res.Templates = []*domain.Template{}
	}
	writeJSON(w, http.StatusOK, res)
}

// GetTemplate returns one stored template
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.storage.GetTemplate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get template", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SaveTemplate upserts the template in the body
func (h *TemplateHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var t domain.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res := domain.ValidateTemplate(&t); !res.Valid {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid template", Errors: res.Errors})
		return
	}
	if err := h.storage.SaveTemplate(r.Context(), &t); err != nil {
		writeServiceError(w, h.logger, "Failed to save template", err)
		return
	}
	writeJSON(w, http.StatusOK, &t)
}

// DeleteTemplate removes one stored template
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := h.storage.DeleteTemplate(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to delete template", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearTemplates empties the store
func (h *TemplateHandler) ClearTemplates(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearAll(r.Context()); err != nil {
		writeServiceError(w, h.logger, "Failed to clear templates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StorageInfo returns the template count and last update time
func (h *TemplateHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.storage.Info(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to read storage info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ExportAll downloads the whole storage envelope
func (h *TemplateHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	data, err := h.storage.ExportAllAsJSON(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export templates", err)
		return
	}
	writeDownload(w, &service.Download{
		Filename:    "templates-backup.json",
		ContentType: "application/json",
		Data:        []byte(data),
	})
}

// ImportAll merges an exported storage envelope
func (h *TemplateHandler) ImportAll(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	summary, err := h.storage.ImportFromJSON(r.Context(), string(data))
	if err != nil {
		writeServiceError(w, h.logger, "Failed to import templates", err)
		return
	}
	status := http.StatusOK
	if !summary.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, summary)
}

// selected returns the stored templates, limited to the comma separated
// ids query parameter when it is present.
func (h *TemplateHandler) selected(r *http.Request) ([]*domain.Template, error) {
	res, err := h.storage.LoadTemplates(r.Context())
	if err != nil {
		return nil, err
	}
	ids := r.URL.Query().Get("ids")
	if ids == "" {
		return res.Templates, nil
	}
	want := make(map[string]bool)
	for _, id := range strings.Split(ids, ",") {
		want[strings.TrimSpace(id)] = true
	}
	out := make([]*domain.Template, 0, len(want))
	for _, t := range res.Templates {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// DownloadBundle exports stored templates as one bundle file
func (h *TemplateHandler) DownloadBundle(w http.ResponseWriter, r *http.Request) {
	templates, err := h.selected(r)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to load templates", err)
		return
	}
	dl, err := h.exporter.DownloadTemplatesBundle(templates, r.URL.Query().Get("filename"))
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export bundle", err)
		return
	}
	writeDownload(w, dl)
}

// DownloadManifest exports the manifest of stored templates
func (h *TemplateHandler) DownloadManifest(w http.ResponseWriter, r *http.Request) {
	templates, err := h.selected(r)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to load templates", err)
		return
	}
	dl, err := h.exporter.DownloadManifest(templates)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export manifest", err)
		return
	}
	writeDownload(w, dl)
}

// DownloadTemplate exports one template as an interchange document
func (h *TemplateHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.storage.GetTemplate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get template", err)
		return
	}
	dl, err := h.exporter.DownloadTemplateAsJSON(t, r.URL.Query().Get("filename"))
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export template", err)
		return
	}
	writeDownload(w, dl)
}

// DownloadForIntegration exports one template for an external consumer
func (h *TemplateHandler) DownloadForIntegration(w http.ResponseWriter, r *http.Request) {
	t, err := h.storage.GetTemplate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get template", err)
		return
	}
	dl, err := h.exporter.WriteForIntegration(t, service.IntegrationOptions{
		SkipMetadata:      queryBool(r, "skipMetadata"),
		SkipDynamicFields: queryBool(r, "skipDynamicFields"),
		Minify:            queryBool(r, "minify"),
	})
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export template", err)
		return
	}
	writeDownload(w, dl)
}

// CopyToClipboard places the export of a template on the server clipboard
func (h *TemplateHandler) CopyToClipboard(w http.ResponseWriter, r *http.Request) {
	t, err := h.storage.GetTemplate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get template", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": h.exporter.CopyTemplateToClipboard(r.Context(), t)})
}

// ImportTemplate imports an interchange document, bundle or bare template
// from the body. With ?save=true the imported template is stored.
func (h *TemplateHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	res := h.exporter.ImportTemplateFromFile(io.LimitReader(r.Body, maxBodyBytes))
	h.finishImport(w, r, res.Success, res.Template, res)
}

// ImportFromClipboard imports whatever the server clipboard holds
func (h *TemplateHandler) ImportFromClipboard(w http.ResponseWriter, r *http.Request) {
	res := h.exporter.ImportTemplateFromClipboard(r.Context())
	h.finishImport(w, r, res.Success, res.Template, res)
}

func (h *TemplateHandler) finishImport(w http.ResponseWriter, r *http.Request, ok bool, t *domain.Template, body interface{}) {
	if !ok {
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	if queryBool(r, "save") {
		if err := h.storage.SaveTemplate(r.Context(), t); err != nil {
			writeServiceError(w, h.logger, "Failed to save imported template", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// ImportBundle imports and stores every template of a bundle
func (h *TemplateHandler) ImportBundle(w http.ResponseWriter, r *http.Request) {
	res := h.exporter.ImportTemplatesBundle(io.LimitReader(r.Body, maxBodyBytes))
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	for _, t := range res.Templates {
		if err := h.storage.SaveTemplate(r.Context(), t); err != nil {
			writeServiceError(w, h.logger, "Failed to save imported template", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}

type renderRequest struct {
	Values map[string]string `json:"values"`
}

// RenderTemplate streams the rendered document of a stored template
func (h *TemplateHandler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := mux.Vars(r)["id"]
	t, err := h.storage.GetTemplate(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get template", err)
		return
	}

	var buf bytes.Buffer
	if err := h.render.RenderTemplate(r.Context(), id, req.Values, &buf); err != nil {
		writeServiceError(w, h.logger, "Failed to render template", err)
		return
	}
	writeDownload(w, &service.Download{
		Filename:    service.ExportFilename(t),
		ContentType: h.render.ContentType(),
		Data:        buf.Bytes(),
	})
}

// ArchiveTemplate renders a stored template into the archive bucket
func (h *TemplateHandler) ArchiveTemplate(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	path, err := h.render.ArchiveTemplate(r.Context(), mux.Vars(r)["id"], req.Values)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to archive template", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// IssuePublicToken creates a read-only share link for a template
func (h *TemplateHandler) IssuePublicToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.share.IssuePublicToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to issue public token", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// PublicTemplate returns the export a public token points at
func (h *TemplateHandler) PublicTemplate(w http.ResponseWriter, r *http.Request) {
	doc, err := h.share.PublicExport(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeServiceError(w, h.logger, "Failed to resolve public token", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
