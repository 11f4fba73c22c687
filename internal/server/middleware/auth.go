package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the onboarding session token.
const SessionHeader = "X-Onboarding-Session"

// SessionValidator resolves a session token to its session id.
type SessionValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// OnboardingSession requires a valid onboarding session token, taken from
// SessionHeader or, for WebSocket upgrades, the "session" query parameter.
// A bearer token in Authorization is forwarded to the backend as the
// merchant credential.
func OnboardingSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := r.Header.Get(SessionHeader)
			if tok == "" {
				tok = r.URL.Query().Get("session")
			}
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing onboarding session"}`, http.StatusUnauthorized)
				return
			}

			id, err := sessions.Validate(tok)
			if err != nil {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"invalid or expired onboarding session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionID, id)
			if cred := extractBearer(r); cred != "" {
				ctx = context.WithValue(ctx, ContextKeyCredential, cred)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}
