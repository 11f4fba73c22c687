package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/onboarding"
)

// OnboardingService abstracts the wizard operations for handler testing.
// *onboarding.Service satisfies this interface.
type OnboardingService interface {
	Start(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	State(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	SetName(ctx context.Context, id uuid.UUID, name string) (*onboarding.View, error)
	SetSlug(ctx context.Context, id uuid.UUID, raw string) (*onboarding.View, error)
	SetDetails(ctx context.Context, id uuid.UUID, description, city string) (*onboarding.View, error)
	CheckSlug(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	SubmitStoreInfo(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	ContinueWelcome(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	Answer(ctx context.Context, id uuid.UUID, questionID, option string) (*onboarding.View, error)
	NextQuestion(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	PrevQuestion(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	SkipQuestions(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	LoadSuggestions(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	Select(ctx context.Context, id uuid.UUID, kind, value string) (*onboarding.View, error)
	SubmitBranding(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	SkipBranding(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	SendMessage(ctx context.Context, id uuid.UUID, text string) (*onboarding.View, error)
	Complete(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.Completion, error)
	Skip(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.Completion, error)
	Back(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
}

// SessionIssuer mints onboarding session tokens.
// *auth.Sessions satisfies this interface.
type SessionIssuer interface {
	Issue() (uuid.UUID, string, error)
}

// ViewPublisher pushes wizard updates to live chat sockets. *ws.Hub satisfies
// this interface.
type ViewPublisher interface {
	PublishView(ctx context.Context, sessionID uuid.UUID, view *onboarding.View) error
}
