package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/mbuy/stores/internal/api/ws"
	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server/middleware"
	"github.com/mbuy/stores/internal/storefront"
)

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/onboarding/chat", hub.ServeChat)
}

func registerPageRoutes(r chi.Router, s *Server) {
	r.Get("/", serveHome)
	r.Get(middleware.OnboardingPath, s.serveOnboarding)

	r.Put("/preferences/appearance", serveAppearance)
	r.Post("/preferences/appearance", serveAppearance)

	r.Route("/store/{slug}", func(r chi.Router) {
		r.Get("/", s.stores.ServeStore)
		r.Post("/cart", s.stores.ServeCart)
		// Store hosts rewrite every path, the appearance toggle included.
		r.Put("/preferences/appearance", serveAppearance)
		r.Post("/preferences/appearance", serveAppearance)
		r.Get("/*", s.stores.NotFound)
	})
}

// serveHome sends the main site to the onboarding wizard. Store hosts never
// reach it: host routing rewrites "/" to their store page.
func serveHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, middleware.OnboardingPath, http.StatusTemporaryRedirect)
}

type onboardingPage struct {
	Title      string
	Appearance storefront.Appearance
	MainDomain string
	TotalSteps int
	Progress   string
	Percent    int
}

// serveOnboarding renders the wizard shell. The wizard itself runs in the
// browser against the onboarding API.
func (s *Server) serveOnboarding(w http.ResponseWriter, r *http.Request) {
	data := onboardingPage{
		Title:      "أنشئ متجرك على mbuy",
		Appearance: storefront.AppearanceFromRequest(r),
		MainDomain: s.cfg.MainDomain,
		TotalSteps: onboarding.LastStep,
		Progress:   onboarding.ProgressLabel(onboarding.StepStoreInfo),
		Percent:    onboarding.StepStoreInfo * 100 / onboarding.LastStep,
	}

	var buf bytes.Buffer
	if err := storefront.Pages().ExecuteTemplate(&buf, "onboarding", data); err != nil {
		log.Error().Err(err).Msg("onboarding: render shell failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// serveAppearance stores the light/dark/system preference. PUT takes JSON
// from the toggle script and answers 204; a plain form POST is redirected
// back to the page it came from.
func serveAppearance(w http.ResponseWriter, r *http.Request) {
	var value string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<10))
		if err != nil || !gjson.ValidBytes(body) {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		value = gjson.GetBytes(body, "appearance").String()
	} else {
		value = r.FormValue("appearance")
	}

	a, ok := storefront.ParseAppearance(value)
	if !ok {
		http.Error(w, "appearance must be light, dark or system", http.StatusBadRequest)
		return
	}
	storefront.SetAppearance(w, a)

	if r.Method == http.MethodPost {
		http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func localReferer(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		host, path, found := strings.Cut(rest, "/")
		if !found || !strings.EqualFold(host, r.Host) {
			return "/"
		}
		ref = "/" + path
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return "/"
	}
	return ref
}
