package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/observability"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
	"github.com/odyssey-erp/odyssey-auth/jobs"
	"github.com/odyssey-erp/odyssey-auth/web"
)

const loginPage = "login.html"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AuthHandler  *auth.Handler
	UsersHandler *users.Handler
	JobHandler   *jobs.Handler
	Metrics      *observability.Metrics

	// Public overrides the embedded static tree when set.
	Public fs.FS
	// Uploads overrides Config.UploadsDir when set.
	Uploads fs.FS
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	public := params.Public
	if public == nil {
		sub, err := fs.Sub(web.Static, "static")
		if err != nil {
			params.Logger.Error("create static sub filesystem", slog.Any("error", err))
		} else {
			public = sub
		}
	}
	uploads := params.Uploads
	if uploads == nil && params.Config != nil && params.Config.UploadsDir != "" {
		uploads = os.DirFS(params.Config.UploadsDir)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	serveLogin := func(w http.ResponseWriter, r *http.Request) {
		if !serveFile(w, r, public, loginPage) {
			httpx.NotFound(w, r)
		}
	}
	r.Get("/", serveLogin)
	r.Head("/", serveLogin)

	serveUpload := func(w http.ResponseWriter, r *http.Request) {
		if !serveFile(w, r, uploads, chi.URLParam(r, "*")) {
			httpx.NotFound(w, r)
		}
	}
	r.Get("/uploads/*", serveUpload)
	r.Head("/uploads/*", serveUpload)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if serveFile(w, r, public, strings.TrimPrefix(r.URL.Path, "/")) {
				return
			}
		}
		httpx.NotFound(w, r)
	})
	r.MethodNotAllowed(httpx.NotFound)

	return r
}

// serveFile writes name from fsys when it names a regular file.
func serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) bool {
	if fsys == nil {
		return false
	}
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if strings.HasPrefix(name, "assets/") {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	http.ServeFileFS(w, r, fsys, name)
	return true
}
