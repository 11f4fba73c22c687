package domain

// Gradient is a suggested two-stop color gradient.
type Gradient struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// Primary returns the first gradient stop, used as the store primary color.
func (g Gradient) Primary() string {
	if len(g.Colors) == 0 {
		return ""
	}
	return g.Colors[0]
}

// ThemePreview is a suggested theme with its preview asset.
type ThemePreview struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

// Suggestions are branding proposals for a new store.
type Suggestions struct {
	Logos     []string       `json:"logos"`
	Gradients []Gradient     `json:"gradients"`
	Themes    []ThemePreview `json:"themes"`
}

// Empty reports whether no suggestion of any category is present.
func (s Suggestions) Empty() bool {
	return len(s.Logos) == 0 && len(s.Gradients) == 0 && len(s.Themes) == 0
}

// SuggestionRequest is the payload for POST /secure/store/{id}/ai-suggestions.
type SuggestionRequest struct {
	StoreName   string            `json:"store_name"`
	Description string            `json:"description,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}
