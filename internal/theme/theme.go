// Package theme holds the platform-defined storefront themes.
package theme

import (
	"fmt"
	"strings"
)

// DefaultID is the theme used when a store has none assigned or an unknown one.
const DefaultID = "modern"

// Colors is the seven-color palette of a theme.
type Colors struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	Text          string `json:"text"`
	TextSecondary string `json:"text_secondary"`
}

// Typography holds the body and heading font stacks.
type Typography struct {
	FontFamily  string `json:"font_family"`
	HeadingFont string `json:"heading_font"`
}

// ButtonTokens style buttons.
type ButtonTokens struct {
	BorderRadius string `json:"border_radius"`
	Padding      string `json:"padding"`
}

// CardTokens style product cards.
type CardTokens struct {
	BorderRadius string `json:"border_radius"`
	Shadow       string `json:"shadow"`
}

// Components groups the component-level tokens.
type Components struct {
	Button ButtonTokens `json:"button"`
	Card   CardTokens   `json:"card"`
}

// Theme is an immutable bundle of style tokens.
type Theme struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Colors      Colors     `json:"colors"`
	Typography  Typography `json:"typography"`
	Components  Components `json:"components"`
}

//nolint:gochecknoglobals // static registry
var themes = []Theme{
	{
		ID:          "modern",
		Name:        "عصري",
		Description: "تصميم عصري وأنيق مع ألوان زاهية",
		Colors: Colors{
			Primary:       "#2563EB",
			Secondary:     "#7C3AED",
			Accent:        "#059669",
			Background:    "#FFFFFF",
			Surface:       "#F9FAFB",
			Text:          "#111827",
			TextSecondary: "#6B7280",
		},
		Typography: Typography{
			FontFamily:  "Inter, sans-serif",
			HeadingFont: "Inter, sans-serif",
		},
		Components: Components{
			Button: ButtonTokens{BorderRadius: "12px", Padding: "12px 24px"},
			Card:   CardTokens{BorderRadius: "16px", Shadow: "0 4px 6px -1px rgba(0, 0, 0, 0.1)"},
		},
	},
	{
		ID:          "classic",
		Name:        "كلاسيكي",
		Description: "تصميم كلاسيكي وأنيق مع ألوان هادئة",
		Colors: Colors{
			Primary:       "#1F2937",
			Secondary:     "#4B5563",
			Accent:        "#DC2626",
			Background:    "#FFFFFF",
			Surface:       "#F3F4F6",
			Text:          "#111827",
			TextSecondary: "#6B7280",
		},
		Typography: Typography{
			FontFamily:  "Georgia, serif",
			HeadingFont: "Georgia, serif",
		},
		Components: Components{
			Button: ButtonTokens{BorderRadius: "4px", Padding: "10px 20px"},
			Card:   CardTokens{BorderRadius: "8px", Shadow: "0 2px 4px rgba(0, 0, 0, 0.1)"},
		},
	},
	{
		ID:          "minimal",
		Name:        "بسيط",
		Description: "تصميم بسيط وحديث مع تركيز على المحتوى",
		Colors: Colors{
			Primary:       "#000000",
			Secondary:     "#666666",
			Accent:        "#000000",
			Background:    "#FFFFFF",
			Surface:       "#FAFAFA",
			Text:          "#000000",
			TextSecondary: "#666666",
		},
		Typography: Typography{
			FontFamily:  "Helvetica, Arial, sans-serif",
			HeadingFont: "Helvetica, Arial, sans-serif",
		},
		Components: Components{
			Button: ButtonTokens{BorderRadius: "0px", Padding: "12px 32px"},
			Card:   CardTokens{BorderRadius: "0px", Shadow: "none"},
		},
	},
}

// Get looks up a theme by id. The second result is false for unknown ids;
// callers substitute a default themselves.
func Get(id string) (Theme, bool) {
	for _, t := range themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// Default returns the modern theme.
func Default() Theme {
	t, _ := Get(DefaultID)
	return t
}

// Resolve returns the theme for id, or the default theme when id is empty or unknown.
func Resolve(id string) Theme {
	if t, ok := Get(id); ok {
		return t
	}
	return Default()
}

// All returns a copy of the registered themes in registry order.
func All() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// IDs returns the registered theme ids in registry order.
func IDs() []string {
	ids := make([]string, 0, len(themes))
	for _, t := range themes {
		ids = append(ids, t.ID)
	}
	return ids
}

// CSS serializes the theme tokens into a :root block of CSS custom properties.
func CSS(t Theme) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, d := range declarations(t) {
		fmt.Fprintf(&b, "  %s: %s;\n", d[0], d[1])
	}
	b.WriteString("}\n")
	return b.String()
}

// PageCSS is CSS plus the body rule applied on store pages.
func PageCSS(t Theme) string {
	return CSS(t) + fmt.Sprintf(
		"body {\n  font-family: %s;\n  background-color: %s;\n  color: %s;\n}\n",
		t.Typography.FontFamily, t.Colors.Background, t.Colors.Text,
	)
}

func declarations(t Theme) [][2]string {
	return [][2]string{
		{"--color-primary", t.Colors.Primary},
		{"--color-secondary", t.Colors.Secondary},
		{"--color-accent", t.Colors.Accent},
		{"--color-background", t.Colors.Background},
		{"--color-surface", t.Colors.Surface},
		{"--color-text", t.Colors.Text},
		{"--color-text-secondary", t.Colors.TextSecondary},
		{"--font-family", t.Typography.FontFamily},
		{"--font-heading", t.Typography.HeadingFont},
		{"--button-radius", t.Components.Button.BorderRadius},
		{"--button-padding", t.Components.Button.Padding},
		{"--card-radius", t.Components.Card.BorderRadius},
		{"--card-shadow", t.Components.Card.Shadow},
	}
}
