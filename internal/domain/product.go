package domain

// Product is a display-only catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"main_image_url,omitempty"`
	Description string  `json:"description,omitempty"`
	Stock       int     `json:"stock"`
}

// InStock reports whether the product can be added to a cart.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductQuery pages through a store's products.
type ProductQuery struct {
	Limit      int
	Offset     int
	CategoryID string
}

// FirstPage is the product page shown on the store front.
//
//nolint:gochecknoglobals // fixed query
var FirstPage = ProductQuery{Limit: 20, Offset: 0}
