package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mbuy/stores/web"
)

//nolint:gochecknoglobals // embedded asset root
var staticAssets = mustSub(web.Static, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func registerStaticRoutes(r chi.Router) {
	assets := http.StripPrefix("/_static", staticFileServer(staticAssets))
	r.Get("/_static/*", assets.ServeHTTP)
	r.Get("/robots.txt", staticFileServer(staticAssets).ServeHTTP)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// staticFileServer serves files from an fs.FS. Directories and missing files
// are 404; there is no index fallback.
func staticFileServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		info, err := fs.Stat(assets, path)
		if path == "" || err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}
