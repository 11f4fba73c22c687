package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/metrics"
)

// Action is what the host router does with a request.
type Action int

const (
	ActionPass Action = iota
	ActionRewrite
	ActionRedirect
	ActionStatic
)

func (a Action) String() string {
	switch a {
	case ActionRewrite:
		return "rewrite"
	case ActionRedirect:
		return "redirect"
	case ActionStatic:
		return "static"
	default:
		return "pass"
	}
}

// OnboardingPath is where main-site requests for store routes are sent.
const OnboardingPath = "/onboarding"

// Decision is the routing outcome for one request. Path is the rewritten
// path for ActionRewrite and the redirect target for ActionRedirect.
type Decision struct {
	Action Action
	Path   string
	Slug   string
}

//nolint:gochecknoglobals // fixed exclusion list
var staticPrefixes = []string{"/_static/", "/static/"}

//nolint:gochecknoglobals // fixed exclusion list
var staticFiles = []string{"/favicon.ico", "/robots.txt"}

func isStaticPath(path string) bool {
	for _, p := range staticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, f := range staticFiles {
		if path == f {
			return true
		}
	}
	return false
}

// Route decides how a request for host and path is handled.
//
// A store host gets every path outside /store/, /onboarding and /api rewritten
// under /store/{slug}. Any other host asking for /store/ is redirected to
// onboarding. Static assets are never touched.
func Route(host, path, mainDomain string) Decision {
	if path == "" {
		path = "/"
	}
	if isStaticPath(path) {
		return Decision{Action: ActionStatic}
	}

	slug, ok := domain.ExtractStoreSlug(host, mainDomain)
	if ok {
		if strings.HasPrefix(path, "/store/") || strings.HasPrefix(path, "/onboarding") || strings.HasPrefix(path, "/api") {
			return Decision{Action: ActionPass, Slug: slug}
		}
		target := "/store/" + slug
		if path != "/" {
			target += path
		}
		return Decision{Action: ActionRewrite, Path: target, Slug: slug}
	}

	if strings.HasPrefix(path, "/store/") {
		return Decision{Action: ActionRedirect, Path: OnboardingPath}
	}
	return Decision{Action: ActionPass}
}

// HostRouting applies Route to every request. Rewrites are internal: the
// request continues down the chain with its URL path replaced, so it must be
// installed with Use on the router whose routes should see the new path.
func HostRouting(mainDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if host == "" {
				host = r.Header.Get("X-Forwarded-Host")
			}

			d := Route(host, r.URL.Path, mainDomain)
			metrics.RecordRoutingDecision(d.Action.String())

			if d.Slug != "" {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyStoreSlug, d.Slug))
			}

			switch d.Action {
			case ActionRewrite:
				log.Debug().
					Str("host", host).
					Str("from", r.URL.Path).
					Str("to", d.Path).
					Msg("host routing: rewrite")
				r.URL.Path = d.Path
				r.URL.RawPath = ""
			case ActionRedirect:
				http.Redirect(w, r, d.Path, http.StatusTemporaryRedirect)
				return
			case ActionPass, ActionStatic:
			}

			next.ServeHTTP(w, r)
		})
	}
}
