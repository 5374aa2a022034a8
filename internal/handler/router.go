package handler

import (
	"fmt"
	"net/http"

	"docbuilder/internal/domain"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Routes is everything NewRouter mounts. Sync may be nil when the template
// table is not configured.
type Routes struct {
	Templates   *TemplateHandler
	Sessions    *SessionHandler
	Integration *IntegrationHandler
	Sync        *SyncHandler

	Metrics        http.Handler
	Middleware     []mux.MiddlewareFunc
	AllowedOrigins []string
	Logger         domain.Logger
}

// recoveryLogger adapts domain.Logger for handlers.RecoveryHandler.
type recoveryLogger struct {
	logger domain.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from panic", fmt.Errorf("%s", fmt.Sprint(v...)))
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(routes Routes) http.Handler {
	router := mux.NewRouter()
	router.Use(routes.Middleware...)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "docbuilder"})
	}).Methods("GET")

	if routes.Metrics != nil {
		router.Handle("/metrics", routes.Metrics).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Stored templates
	th := routes.Templates
	api.HandleFunc("/templates", th.ListTemplates).Methods("GET")
	api.HandleFunc("/templates", th.SaveTemplate).Methods("POST", "PUT")
	api.HandleFunc("/templates", th.ClearTemplates).Methods("DELETE")
	api.HandleFunc("/templates/info", th.StorageInfo).Methods("GET")
	api.HandleFunc("/templates/export", th.ExportAll).Methods("GET")
	api.HandleFunc("/templates/import", th.ImportAll).Methods("POST")
	api.HandleFunc("/templates/bundle", th.DownloadBundle).Methods("GET")
	api.HandleFunc("/templates/manifest", th.DownloadManifest).Methods("GET")
	api.HandleFunc("/templates/{id}", th.GetTemplate).Methods("GET")
	api.HandleFunc("/templates/{id}", th.DeleteTemplate).Methods("DELETE")
	api.HandleFunc("/templates/{id}/download", th.DownloadTemplate).Methods("GET")
	api.HandleFunc("/templates/{id}/integration", th.DownloadForIntegration).Methods("GET")
	api.HandleFunc("/templates/{id}/clipboard", th.CopyToClipboard).Methods("POST")
	api.HandleFunc("/templates/{id}/render", th.RenderTemplate).Methods("POST")
	api.HandleFunc("/templates/{id}/archive", th.ArchiveTemplate).Methods("POST")
	api.HandleFunc("/templates/{id}/public-token", th.IssuePublicToken).Methods("POST")

	// Interchange imports
	api.HandleFunc("/import", th.ImportTemplate).Methods("POST")
	api.HandleFunc("/import/bundle", th.ImportBundle).Methods("POST")
	api.HandleFunc("/import/clipboard", th.ImportFromClipboard).Methods("POST")

	// Public share links
	api.HandleFunc("/public/templates/{token}", th.PublicTemplate).Methods("GET")

	// Editor sessions
	sh := routes.Sessions
	api.HandleFunc("/sessions", sh.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/import", sh.ImportSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", sh.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", sh.CloseSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/commands", sh.ApplyCommand).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", sh.Undo).Methods("POST")
	api.HandleFunc("/sessions/{id}/redo", sh.Redo).Methods("POST")
	api.HandleFunc("/sessions/{id}/save", sh.SaveSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/render", sh.RenderSession).Methods("POST")

	// Compliance integration
	ih := routes.Integration
	api.HandleFunc("/integration/templates", ih.ListRemote).Methods("GET")
	api.HandleFunc("/integration/templates/{remoteId}/pull", ih.PullTemplate).Methods("POST")
	api.HandleFunc("/templates/{id}/push", ih.PushTemplate).Methods("POST")

	// Template sync (X-Sync-Key)
	if routes.Sync != nil {
		sync := api.PathPrefix("/sync").Subrouter()
		sync.Use(routes.Sync.RequireSyncKey)
		sync.HandleFunc("", routes.Sync.Query).Methods("GET")
		sync.HandleFunc("", routes.Sync.Mutate).Methods("POST")
	}

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: routes.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Sync-Key",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{routes.Logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(c.Handler(router))
}
