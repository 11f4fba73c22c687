package domain

// Store is the merchant's public store record as served by the backend.
type Store struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Description   string `json:"description,omitempty"`
	City          string `json:"city,omitempty"`
	LogoURL       string `json:"logo_url,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
}

// StoreTheme is the theme assignment of a store. ThemeID may be empty.
type StoreTheme struct {
	ThemeID string `json:"theme_id"`
}

// Branding holds the visual assets assigned to a store.
type Branding struct {
	LogoURL        string `json:"logo_url,omitempty"`
	CoverImageURL  string `json:"cover_image_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	ThemeID        string `json:"theme_id,omitempty"`
}

// BrandingUpdate is the partial branding payload for PUT /secure/store/{id}/branding.
// Empty fields are omitted from the request.
type BrandingUpdate = Branding

// CreateStoreRequest is the payload for POST /secure/store/create.
type CreateStoreRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	City        string `json:"city,omitempty"`
}

// Empty reports whether no branding value is set.
func (b Branding) Empty() bool {
	return b == Branding{}
}
