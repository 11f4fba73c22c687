package domain

import (
	"net/http"
	"regexp"
	"strings"
)

// DefaultMainDomain is the platform root domain under which store subdomains live.
const DefaultMainDomain = "mbuy.pro"

//nolint:gochecknoglobals // compiled once
var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

//nolint:gochecknoglobals // fixed platform subdomains
var reservedSubdomains = map[string]struct{}{
	"www": {},
	"api": {},
}

// ExtractStoreSlug derives the store slug from a Host header value.
//
//	ali-shop.mbuy.pro      -> "ali-shop", true
//	shop1.mbuy.pro:3000    -> "shop1", true
//	www.mbuy.pro, mbuy.pro -> "", false
//	localhost:3000         -> "", false
//
// The returned label is not guaranteed to pass ValidateSlug.
func ExtractStoreSlug(host, mainDomain string) (string, bool) {
	if host == "" || mainDomain == "" {
		return "", false
	}

	hostname := strings.ToLower(host)
	if i := strings.IndexByte(hostname, ':'); i >= 0 {
		hostname = hostname[:i]
	}

	suffix := "." + strings.ToLower(mainDomain)
	if !strings.HasSuffix(hostname, suffix) {
		return "", false
	}

	label := strings.TrimSuffix(hostname, suffix)
	if label == "" {
		return "", false
	}
	if _, reserved := reservedSubdomains[label]; reserved {
		return "", false
	}

	return label, true
}

// SlugFromRequest resolves the store slug from the request Host, falling back to
// X-Forwarded-Host when Host is empty.
func SlugFromRequest(r *http.Request, mainDomain string) (string, bool) {
	host := r.Host
	if host == "" {
		host = r.Header.Get("X-Forwarded-Host")
	}
	return ExtractStoreSlug(host, mainDomain)
}

// ValidateSlug reports whether slug is a valid store identifier: lowercase
// alphanumerics with optional inner hyphens, 1-63 characters.
func ValidateSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Slugify derives a slug from a store name. Characters outside [a-z0-9] are
// dropped without transliteration, so a name written entirely in Arabic yields "".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			pendingHyphen = true
		}
	}

	return b.String()
}

// CleanSlugInput filters a manually typed slug: lowercase, keeping only
// [a-z0-9-]. It does not validate.
func CleanSlugInput(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StoreURL returns the public URL of the store with the given slug.
func StoreURL(slug, mainDomain string) string {
	return "https://" + slug + "." + mainDomain
}
