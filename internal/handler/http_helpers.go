package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"docbuilder/internal/domain"
	"docbuilder/internal/editor"
	"docbuilder/internal/infra/compliance"
	"docbuilder/internal/service"
	apperrors "docbuilder/pkg/errors"
)

// maxBodyBytes bounds every request body the API reads.
const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// appErrorFor maps service errors onto an AppError. Unknown errors become
// an internal error with a generic message.
func appErrorFor(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPageNotFound),
		errors.Is(err, domain.ErrElementNotFound):
		return apperrors.NewNotFoundError(err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		return apperrors.NewNotFoundError("Template not found")
	case errors.Is(err, editor.ErrUnknownCommand):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, domain.ErrArchiveDisabled),
		errors.Is(err, compliance.ErrNotConfigured):
		return apperrors.NewNetworkError(err.Error(), err)
	case errors.Is(err, compliance.ErrSaveEndpointMissing):
		appErr := apperrors.NewNetworkError(err.Error(), err)
		appErr.StatusCode = http.StatusNotImplemented
		return appErr
	case errors.Is(err, domain.ErrNoTemplate):
		return apperrors.NewConflictError(err.Error(), err)
	}
	return apperrors.NewInternalError("Internal server error", err)
}

// statusFor returns the HTTP status and client message for err.
func statusFor(err error) (int, string) {
	appErr := appErrorFor(err)
	return apperrors.GetStatusCode(appErr), appErr.Message
}

// writeAppError writes an AppError with its problem list.
func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	writeJSON(w, appErr.StatusCode, errorResponse{Error: appErr.Message, Errors: appErr.Errors})
}

// writeServiceError logs internal and upstream failures and writes the
// mapped status.
func writeServiceError(w http.ResponseWriter, logger domain.Logger, msg string, err error) {
	appErr := appErrorFor(err)
	switch {
	case apperrors.IsType(appErr, apperrors.ErrorTypeInternal):
		logger.Error(msg, err)
	case apperrors.IsType(appErr, apperrors.ErrorTypeNetwork):
		logger.Warn(msg, "error", err.Error())
	}
	writeAppError(w, appErr)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDownload sends an export as an attachment.
func writeDownload(w http.ResponseWriter, dl *service.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Data)
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
