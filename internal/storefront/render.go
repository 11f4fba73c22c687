// Package storefront renders merchant store pages.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/metrics"
	"github.com/mbuy/stores/internal/theme"
)

// hexColor gates backend-supplied colors before they reach the style block.
//
//nolint:gochecknoglobals // compiled once
var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Backend is the subset of the store backend the renderer reads from.
type Backend interface {
	GetStore(ctx context.Context, slug string) (*domain.Store, error)
	GetStoreTheme(ctx context.Context, slug string) (*domain.StoreTheme, error)
	GetStoreBranding(ctx context.Context, slug string) (*domain.Branding, error)
	ListProducts(ctx context.Context, slug string, q domain.ProductQuery) ([]domain.Product, error)
}

// Kind tags the outcome of a render.
type Kind int

const (
	KindRendered Kind = iota
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindRendered:
		return "rendered"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Page is everything a store page shows.
type Page struct {
	Slug     string
	Store    domain.Store
	Theme    theme.Theme
	Products []domain.Product
	CSS      template.CSS
}

// Result is the outcome of Render. Page is set only for KindRendered; Err
// explains the other kinds.
type Result struct {
	Kind Kind
	Page *Page
	Err  error
}

// Renderer fetches and composes store pages.
type Renderer struct {
	backend Backend
}

// NewRenderer creates a Renderer.
func NewRenderer(be Backend) *Renderer {
	return &Renderer{backend: be}
}

// Render composes the page for slug. An unknown store is KindNotFound; a
// backend outage or any unexpected failure is KindUnavailable so the caller
// can offer a retry. Theme, branding and product failures degrade to
// defaults rather than failing the page.
func (r *Renderer) Render(ctx context.Context, slug string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("slug", slug).Interface("panic", p).Msg("storefront: render panicked")
			res = Result{Kind: KindUnavailable, Err: fmt.Errorf("storefront.Renderer.Render: panic: %v", p)}
		}
		metrics.RecordStorefrontRender(res.Kind.String())
	}()

	if !domain.ValidateSlug(slug) {
		return Result{Kind: KindNotFound, Err: fmt.Errorf("storefront.Renderer.Render: %q: %w", slug, domain.ErrInvalidSlug)}
	}

	store, err := r.backend.GetStore(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{Kind: KindNotFound, Err: err}
		}
		log.Error().Err(err).Str("slug", slug).Msg("storefront: store fetch failed")
		return Result{Kind: KindUnavailable, Err: err}
	}
	if store == nil {
		return Result{Kind: KindNotFound, Err: fmt.Errorf("storefront.Renderer.Render: %w", domain.ErrNotFound)}
	}

	var (
		themeID  string
		branding domain.Branding
		products []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard("theme", func() error {
		st, err := r.backend.GetStoreTheme(gctx, slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("storefront: theme unavailable, using default")
			return nil
		}
		themeID = st.ThemeID
		return nil
	}))
	g.Go(guard("branding", func() error {
		b, err := r.backend.GetStoreBranding(gctx, slug)
		if err != nil {
			log.Debug().Err(err).Str("slug", slug).Msg("storefront: no branding")
			return nil
		}
		branding = *b
		return nil
	}))
	g.Go(guard("products", func() error {
		list, err := r.backend.ListProducts(gctx, slug, domain.FirstPage)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("storefront: products unavailable, showing none")
			return nil
		}
		products = list
		return nil
	}))
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("storefront: partial render")
	}

	return Result{Kind: KindRendered, Page: compose(slug, *store, themeID, branding, products)}
}

// guard turns a panic in a concurrent fetch into an error so the page
// still renders with that section's default.
func guard(section string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("storefront: %s fetch panicked: %v", section, p)
			}
		}()
		return fn()
	}
}

// compose applies branding on top of the store record and theme. The
// theme endpoint's assignment wins over the branding theme id.
func compose(slug string, store domain.Store, themeID string, branding domain.Branding, products []domain.Product) *Page {
	if themeID == "" {
		themeID = branding.ThemeID
	}
	t := theme.Resolve(themeID)
	if hexColor.MatchString(branding.PrimaryColor) {
		t.Colors.Primary = branding.PrimaryColor
	}
	if hexColor.MatchString(branding.SecondaryColor) {
		t.Colors.Secondary = branding.SecondaryColor
	}
	if store.LogoURL == "" {
		store.LogoURL = branding.LogoURL
	}
	if store.CoverImageURL == "" {
		store.CoverImageURL = branding.CoverImageURL
	}
	if products == nil {
		products = []domain.Product{}
	}

	return &Page{
		Slug:     slug,
		Store:    store,
		Theme:    t,
		Products: products,
		CSS:      template.CSS(theme.PageCSS(t)), //nolint:gosec // theme tokens and hex colors only
	}
}
