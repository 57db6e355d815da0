package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sfero/sfero/internal/profile"
)

// ProfilePagePath is the profile-rendering endpoint the edge rewrites
// /public/{slug} to.
const ProfilePagePath = "/PublicProfileSlug"

//go:embed templates/profile.html
var templateFS embed.FS

var profileTmpl = template.Must(template.ParseFS(templateFS, "templates/profile.html"))

// ProfileResolver resolves a slug to a profile. Implemented by profile.Resolver.
type ProfileResolver interface {
	Resolve(ctx context.Context, slug string) profile.Result
}

// FrontDeps holds dependencies for the profile front handler.
type FrontDeps struct {
	Resolver    ProfileResolver
	SiteURL     string
	ProductName string
}

type pageData struct {
	Slug    string
	Source  profile.Source
	Profile *profile.Profile
	Meta    profile.PageMeta
}

// NewFrontHandler returns the profile front origin: a server-rendered
// profile page plus a health endpoint.
func NewFrontHandler(deps FrontDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Get(ProfilePagePath, handleProfilePage(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleProfilePage always answers 200: a slug found nowhere renders the
// not-found view rather than an HTTP 404.
func handleProfilePage(deps FrontDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		res := deps.Resolver.Resolve(r.Context(), slug)

		data := pageData{
			Slug:    slug,
			Source:  res.Source,
			Profile: res.Profile,
			Meta:    profile.Meta(slug, res, deps.SiteURL, deps.ProductName),
		}

		var buf bytes.Buffer
		if err := profileTmpl.Execute(&buf, data); err != nil {
			slog.Error("rendering profile page", "slug", slug, "error", err)
			httpError(w, http.StatusInternalServerError, "server_error", "rendering profile page")
			return
		}

		slog.Debug("profile page rendered", "slug", slug, "source", res.Source)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
