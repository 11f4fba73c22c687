package storefront

import (
	"net/http"
	"time"
)

// AppearanceCookie stores the visitor's light/dark preference.
const AppearanceCookie = "mbuy-appearance"

// Appearance is the color scheme preference.
type Appearance string

const (
	AppearanceLight  Appearance = "light"
	AppearanceDark   Appearance = "dark"
	AppearanceSystem Appearance = "system"
)

// ParseAppearance validates a preference value.
func ParseAppearance(s string) (Appearance, bool) {
	switch a := Appearance(s); a {
	case AppearanceLight, AppearanceDark, AppearanceSystem:
		return a, true
	default:
		return "", false
	}
}

// AppearanceFromRequest reads the preference cookie, defaulting to system.
func AppearanceFromRequest(r *http.Request) Appearance {
	c, err := r.Cookie(AppearanceCookie)
	if err != nil {
		return AppearanceSystem
	}
	if a, ok := ParseAppearance(c.Value); ok {
		return a
	}
	return AppearanceSystem
}

// SetAppearance writes the preference cookie for a year.
func SetAppearance(w http.ResponseWriter, a Appearance) {
	http.SetCookie(w, &http.Cookie{
		Name:     AppearanceCookie,
		Value:    string(a),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
