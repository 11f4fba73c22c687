package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server/middleware"
)

type CreateSessionOutput struct {
	Body struct {
		Token     string           `json:"token" doc:"Session token, sent back as X-Onboarding-Session"`
		SessionID uuid.UUID        `json:"session_id" doc:"Session ID"`
		State     *onboarding.View `json:"state" doc:"Initial wizard state"`
	}
}

type ViewOutput struct {
	Body *onboarding.View
}

type CompletionOutput struct {
	Body *onboarding.Completion
}

type QuestionsOutput struct {
	Body []onboarding.Question
}

type SetNameInput struct {
	Body struct {
		Name string `json:"name" maxLength:"100" doc:"Store name"`
	}
}

type SetSlugInput struct {
	Body struct {
		Slug string `json:"slug" maxLength:"200" doc:"Store slug as typed; filtered to [a-z0-9-]"`
	}
}

type SetDetailsInput struct {
	Body struct {
		Description string `json:"description,omitempty" maxLength:"1000" doc:"Store description"`
		City        string `json:"city,omitempty" maxLength:"100" doc:"City"`
	}
}

type AnswerInput struct {
	Body struct {
		QuestionID string `json:"question_id" minLength:"1" doc:"Question ID"`
		Answer     string `json:"answer" minLength:"1" doc:"Chosen option"`
	}
}

type SelectInput struct {
	Body struct {
		Kind  string `json:"kind" enum:"logo,gradient,theme" doc:"Suggestion category"`
		Value string `json:"value" doc:"Logo URL, gradient name or theme ID; empty clears"`
	}
}

type ChatMessageInput struct {
	Body struct {
		Message string `json:"message" maxLength:"2000" doc:"Message text"`
	}
}

// RegisterSessionRoutes registers the unauthenticated session bootstrap.
func RegisterSessionRoutes(api huma.API, sessions SessionIssuer, svc OnboardingService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-onboarding-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Start an onboarding session",
		Tags:          []string{"Onboarding"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, _ *struct{}) (*CreateSessionOutput, error) {
		id, token, err := sessions.Issue()
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to issue session", err)
		}

		view, err := svc.Start(ctx, id)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &CreateSessionOutput{}
		out.Body.Token = token
		out.Body.SessionID = id
		out.Body.State = view
		return out, nil
	})
}

// RegisterOnboardingRoutes registers the wizard operations. They expect the
// session ID in context (middleware.OnboardingSession). pub may be nil.
func RegisterOnboardingRoutes(api huma.API, svc OnboardingService, pub ViewPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "get-onboarding-questions",
		Method:      http.MethodGet,
		Path:        "/questions",
		Summary:     "List the store questionnaire",
		Tags:        []string{"Onboarding"},
	}, func(_ context.Context, _ *struct{}) (*QuestionsOutput, error) {
		return &QuestionsOutput{Body: onboarding.Questions()}, nil
	})

	registerView(api, huma.Operation{
		OperationID: "get-onboarding-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Get the wizard state",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.State(ctx, id)
	})

	// Step 1.
	registerView(api, huma.Operation{
		OperationID: "set-store-name",
		Method:      http.MethodPut,
		Path:        "/store-info/name",
		Summary:     "Set the store name",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *SetNameInput) (*onboarding.View, error) {
		return svc.SetName(ctx, id, in.Body.Name)
	})

	registerView(api, huma.Operation{
		OperationID: "set-store-slug",
		Method:      http.MethodPut,
		Path:        "/store-info/slug",
		Summary:     "Set the store slug",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *SetSlugInput) (*onboarding.View, error) {
		return svc.SetSlug(ctx, id, in.Body.Slug)
	})

	registerView(api, huma.Operation{
		OperationID: "set-store-details",
		Method:      http.MethodPut,
		Path:        "/store-info/details",
		Summary:     "Set the store description and city",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *SetDetailsInput) (*onboarding.View, error) {
		return svc.SetDetails(ctx, id, in.Body.Description, in.Body.City)
	})

	registerView(api, huma.Operation{
		OperationID: "check-store-slug",
		Method:      http.MethodPost,
		Path:        "/store-info/check-slug",
		Summary:     "Check slug availability",
	}, func(ctx context.Context, id uuid.UUID, cred backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.CheckSlug(ctx, id, cred)
	})

	registerView(api, huma.Operation{
		OperationID: "submit-store-info",
		Method:      http.MethodPost,
		Path:        "/store-info/submit",
		Summary:     "Submit store info and create the store",
	}, func(ctx context.Context, id uuid.UUID, cred backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.SubmitStoreInfo(ctx, id, cred)
	})

	// Step 2.
	registerView(api, huma.Operation{
		OperationID: "continue-welcome",
		Method:      http.MethodPost,
		Path:        "/welcome/continue",
		Summary:     "Leave the welcome screen",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.ContinueWelcome(ctx, id)
	})

	// Step 3.
	registerView(api, huma.Operation{
		OperationID: "answer-question",
		Method:      http.MethodPut,
		Path:        "/questions/answer",
		Summary:     "Answer the current question",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *AnswerInput) (*onboarding.View, error) {
		return svc.Answer(ctx, id, in.Body.QuestionID, in.Body.Answer)
	})

	registerView(api, huma.Operation{
		OperationID: "next-question",
		Method:      http.MethodPost,
		Path:        "/questions/next",
		Summary:     "Advance to the next question",
	}, func(ctx context.Context, id uuid.UUID, cred backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.NextQuestion(ctx, id, cred)
	})

	registerView(api, huma.Operation{
		OperationID: "prev-question",
		Method:      http.MethodPost,
		Path:        "/questions/prev",
		Summary:     "Return to the previous question",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.PrevQuestion(ctx, id)
	})

	registerView(api, huma.Operation{
		OperationID: "skip-questions",
		Method:      http.MethodPost,
		Path:        "/questions/skip",
		Summary:     "Skip the questionnaire",
	}, func(ctx context.Context, id uuid.UUID, cred backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.SkipQuestions(ctx, id, cred)
	})

	// Step 4.
	registerView(api, huma.Operation{
		OperationID: "load-branding-suggestions",
		Method:      http.MethodPost,
		Path:        "/branding/suggestions",
		Summary:     "Request branding suggestions",
	}, func(ctx context.Context, id uuid.UUID, cred backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.LoadSuggestions(ctx, id, cred)
	})

	registerView(api, huma.Operation{
		OperationID: "select-branding",
		Method:      http.MethodPut,
		Path:        "/branding/selection",
		Summary:     "Select a logo, gradient or theme",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *SelectInput) (*onboarding.View, error) {
		return svc.Select(ctx, id, in.Body.Kind, in.Body.Value)
	})

	registerView(api, huma.Operation{
		OperationID: "submit-branding",
		Method:      http.MethodPost,
		Path:        "/branding/submit",
		Summary:     "Keep the selected branding",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.SubmitBranding(ctx, id)
	})

	registerView(api, huma.Operation{
		OperationID: "skip-branding",
		Method:      http.MethodPost,
		Path:        "/branding/skip",
		Summary:     "Skip branding",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.SkipBranding(ctx, id)
	})

	// Step 5.
	registerView(api, huma.Operation{
		OperationID: "send-chat-message",
		Method:      http.MethodPost,
		Path:        "/chat/messages",
		Summary:     "Send a chat message and wait for the reply",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, in *ChatMessageInput) (*onboarding.View, error) {
		view, err := svc.SendMessage(ctx, id, in.Body.Message)
		if err != nil {
			return nil, err
		}
		if pub != nil {
			if err := pub.PublishView(ctx, id, view); err != nil {
				log.Warn().Err(err).Str("session_id", id.String()).Msg("onboarding: publish chat update failed")
			}
		}
		return view, nil
	})

	registerCompletion(api, huma.Operation{
		OperationID: "complete-onboarding",
		Method:      http.MethodPost,
		Path:        "/complete",
		Summary:     "Finish the wizard",
	}, svc.Complete)

	registerCompletion(api, huma.Operation{
		OperationID: "skip-onboarding",
		Method:      http.MethodPost,
		Path:        "/skip",
		Summary:     "Finish the wizard without the chat",
	}, svc.Skip)

	registerView(api, huma.Operation{
		OperationID: "onboarding-back",
		Method:      http.MethodPost,
		Path:        "/back",
		Summary:     "Return to the previous step",
	}, func(ctx context.Context, id uuid.UUID, _ backend.Credential, _ *struct{}) (*onboarding.View, error) {
		return svc.Back(ctx, id)
	})
}

func registerView[I any](api huma.API, op huma.Operation, fn func(ctx context.Context, id uuid.UUID, cred backend.Credential, in *I) (*onboarding.View, error)) {
	op.Tags = []string{"Onboarding"}
	huma.Register(api, op, func(ctx context.Context, in *I) (*ViewOutput, error) {
		id, ok := middleware.SessionIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing onboarding session")
		}
		cred := backend.Credential(middleware.CredentialFromContext(ctx))

		view, err := fn(ctx, id, cred, in)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ViewOutput{Body: view}, nil
	})
}

func registerCompletion(api huma.API, op huma.Operation, fn func(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.Completion, error)) {
	op.Tags = []string{"Onboarding"}
	huma.Register(api, op, func(ctx context.Context, _ *struct{}) (*CompletionOutput, error) {
		id, ok := middleware.SessionIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing onboarding session")
		}
		cred := backend.Credential(middleware.CredentialFromContext(ctx))

		c, err := fn(ctx, id, cred)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompletionOutput{Body: c}, nil
	})
}

// toHumaError maps wizard and backend errors onto HTTP problems.
func toHumaError(err error) error {
	var ve *onboarding.ValidationError
	switch {
	case errors.As(err, &ve):
		return huma.Error422UnprocessableEntity(ve.Message, &huma.ErrorDetail{
			Location: "body." + ve.Field,
			Message:  ve.Message,
		})
	case errors.Is(err, onboarding.ErrAvailabilityPending):
		return huma.Error409Conflict("slug availability is being checked, submit again once it resolves")
	case errors.Is(err, onboarding.ErrInvalidStep):
		return huma.Error409Conflict("operation not allowed at the current step")
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("merchant credential rejected by the store backend")
	case errors.Is(err, domain.ErrUnavailable):
		return huma.Error503ServiceUnavailable("store backend unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled")
	default:
		log.Error().Err(err).Msg("onboarding: operation failed")
		return huma.Error500InternalServerError("onboarding operation failed")
	}
}
