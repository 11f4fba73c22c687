package storefront

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/web"
)

// CartFunc receives add-to-cart requests. The storefront keeps no cart.
type CartFunc func(ctx context.Context, slug, productID string, quantity int) error

// LogCart is the default CartFunc; it only records the request.
func LogCart(_ context.Context, slug, productID string, quantity int) error {
	log.Info().Str("slug", slug).Str("product_id", productID).Int("quantity", quantity).Msg("storefront: add to cart")
	return nil
}

//nolint:gochecknoglobals // parsed once
var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"price": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"initial": func(name string) string {
		r, _ := utf8.DecodeRuneInString(name)
		if r == utf8.RuneError {
			return ""
		}
		return string(r)
	},
}).ParseFS(web.Templates, "templates/*.html"))

// Pages returns the parsed page templates.
func Pages() *template.Template {
	return pages
}

// Handler serves store pages.
type Handler struct {
	renderer *Renderer
	cart     CartFunc
}

// NewHandler creates a Handler. A nil cart uses LogCart.
func NewHandler(renderer *Renderer, cart CartFunc) *Handler {
	if cart == nil {
		cart = LogCart
	}
	return &Handler{renderer: renderer, cart: cart}
}

type pageData struct {
	*Page
	Title      string
	Appearance Appearance
	CartURL    string
	ReturnTo   string
	RetryURL   string
	HomeURL    string
}

// ServeStore renders /store/{slug}.
func (h *Handler) ServeStore(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	res := h.renderer.Render(r.Context(), slug)

	data := pageData{
		Appearance: AppearanceFromRequest(r),
		HomeURL:    "/",
	}

	switch res.Kind {
	case KindRendered:
		data.Page = res.Page
		data.Title = res.Page.Store.Name
		data.CartURL = "/store/" + slug + "/cart"
		data.ReturnTo = visiblePath(r)
		h.write(w, http.StatusOK, "store", data)
	case KindNotFound:
		log.Debug().Err(res.Err).Str("slug", slug).Msg("storefront: store not found")
		h.NotFound(w, r)
	default:
		data.Title = "عذراً، حدث خطأ غير متوقع"
		data.RetryURL = visiblePath(r)
		w.Header().Set("Retry-After", "5")
		h.write(w, http.StatusServiceUnavailable, "unavailable", data)
	}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusNotFound, "notfound", pageData{
		Title:      "المتجر غير موجود",
		Appearance: AppearanceFromRequest(r),
		HomeURL:    "/",
	})
}

// ServeCart handles POST /store/{slug}/cart.
func (h *Handler) ServeCart(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !domain.ValidateSlug(slug) {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	productID := strings.TrimSpace(r.PostForm.Get("product_id"))
	if productID == "" {
		http.Error(w, "missing product_id", http.StatusBadRequest)
		return
	}
	quantity := 1
	if q := r.PostForm.Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		quantity = n
	}

	if err := h.cart(r.Context(), slug, productID, quantity); err != nil {
		log.Error().Err(err).Str("slug", slug).Str("product_id", productID).Msg("storefront: add to cart failed")
		http.Error(w, "add to cart failed", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, returnTo(r.PostForm.Get("return_to"), "/store/"+slug), http.StatusSeeOther)
}

func (h *Handler) write(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("storefront: template execution failed")
	}
}

// visiblePath is the URL the client asked for, before any host rewrite.
func visiblePath(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.Path
}

// returnTo accepts only local absolute paths.
func returnTo(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	return target
}
