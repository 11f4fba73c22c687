package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/metrics"
)

// Backend is the subset of the store backend the wizard calls.
type Backend interface {
	CheckSlug(ctx context.Context, cred backend.Credential, slug string) (bool, error)
	CreateStore(ctx context.Context, cred backend.Credential, req domain.CreateStoreRequest) (*domain.Store, error)
	UpdateBranding(ctx context.Context, cred backend.Credential, storeID string, update domain.BrandingUpdate) error
	AISuggestions(ctx context.Context, cred backend.Credential, storeID string, req domain.SuggestionRequest) (*domain.Suggestions, error)
}

// Service runs wizard operations for onboarding sessions. Every operation
// loads the session's wizard, applies one transition and saves it back;
// concurrent requests on one session are last-writer-wins.
type Service struct {
	drafts     DraftStore
	backend    Backend
	mainDomain string
	replyDelay time.Duration
	now        func() time.Time
}

// NewService creates a Service. replyDelay is how long the chat assistant
// takes to answer.
func NewService(drafts DraftStore, be Backend, mainDomain string, replyDelay time.Duration) *Service {
	return &Service{
		drafts:     drafts,
		backend:    be,
		mainDomain: mainDomain,
		replyDelay: replyDelay,
		now:        time.Now,
	}
}

// load returns the session's wizard, or a fresh one when none is stored or
// the stored one cannot be read.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*Wizard, time.Time, error) {
	data, err := s.drafts.Load(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return NewWizard(), time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("onboarding.Service.load: %w", err)
	}

	w, env, err := DecodeEnvelope(data)
	if errors.Is(err, ErrDraftVersion) {
		log.Warn().Err(err).
			Str("session_id", id.String()).
			Int("version", env.Version).
			Msg("onboarding: discarding unreadable draft")
		if delErr := s.drafts.Delete(ctx, id); delErr != nil {
			log.Error().Err(delErr).Str("session_id", id.String()).Msg("onboarding: delete draft failed")
		}
		return NewWizard(), time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("onboarding.Service.load: %w", err)
	}
	return w, env.SavedAt, nil
}

func (s *Service) save(ctx context.Context, id uuid.UUID, w *Wizard) (time.Time, error) {
	env := w.Snapshot(s.now())
	data, err := EncodeEnvelope(env)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.drafts.Save(ctx, id, data); err != nil {
		return time.Time{}, fmt.Errorf("onboarding.Service.save: %w", err)
	}
	return env.SavedAt, nil
}

// apply runs fn against the stored wizard and saves the result. Nothing is
// saved when fn fails.
func (s *Service) apply(ctx context.Context, id uuid.UUID, op string, fn func(w *Wizard) error) (*View, error) {
	w, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	before := w.Step()
	if err := fn(w); err != nil {
		return nil, err
	}

	savedAt, err := s.save(ctx, id, w)
	if err != nil {
		return nil, err
	}
	if w.Step() != before {
		metrics.RecordOnboardingTransition(strconv.Itoa(w.Step()), op)
	}
	return NewView(id, w, savedAt), nil
}

// Start begins a new wizard for the session, replacing any stored one.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*View, error) {
	w := NewWizard()
	savedAt, err := s.save(ctx, id, w)
	if err != nil {
		return nil, err
	}
	return NewView(id, w, savedAt), nil
}

// State returns the session's current wizard.
func (s *Service) State(ctx context.Context, id uuid.UUID) (*View, error) {
	w, savedAt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(id, w, savedAt), nil
}

// ---------------------------------------------------------------------------
// Step 1
// ---------------------------------------------------------------------------

func (s *Service) SetName(ctx context.Context, id uuid.UUID, name string) (*View, error) {
	return s.apply(ctx, id, "set_name", func(w *Wizard) error {
		return w.SetName(name)
	})
}

func (s *Service) SetSlug(ctx context.Context, id uuid.UUID, raw string) (*View, error) {
	return s.apply(ctx, id, "set_slug", func(w *Wizard) error {
		_, err := w.SetSlug(raw)
		return err
	})
}

func (s *Service) SetDetails(ctx context.Context, id uuid.UUID, description, city string) (*View, error) {
	return s.apply(ctx, id, "set_details", func(w *Wizard) error {
		return w.SetDetails(description, city)
	})
}

// CheckSlug checks availability of the current slug. The answer is applied
// only if no newer check was started meanwhile.
func (s *Service) CheckSlug(ctx context.Context, id uuid.UUID, cred backend.Credential) (*View, error) {
	w, savedAt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := w.require("CheckSlug", StepStoreInfo); err != nil {
		return nil, err
	}

	gen, slug, ok := w.BeginCheck()
	if savedAt, err = s.save(ctx, id, w); err != nil {
		return nil, err
	}
	if !ok {
		return NewView(id, w, savedAt), nil
	}

	available, checkErr := s.backend.CheckSlug(ctx, cred, slug)
	if checkErr != nil {
		log.Warn().Err(checkErr).Str("slug", slug).Msg("onboarding: slug availability check failed")
	}

	w, savedAt, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.ResolveCheck(gen, available, checkErr) {
		log.Debug().Str("slug", slug).Uint64("gen", gen).Msg("onboarding: stale availability result dropped")
		return NewView(id, w, savedAt), nil
	}
	if savedAt, err = s.save(ctx, id, w); err != nil {
		return nil, err
	}
	return NewView(id, w, savedAt), nil
}

// SubmitStoreInfo validates Step 1, creates the store on first submission
// and advances. When availability is unresolved a check is run and
// ErrAvailabilityPending returned alongside the updated view.
func (s *Service) SubmitStoreInfo(ctx context.Context, id uuid.UUID, cred backend.Credential) (*View, error) {
	w, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = w.ValidateStoreInfo()
	if errors.Is(err, ErrAvailabilityPending) {
		v, checkErr := s.CheckSlug(ctx, id, cred)
		if checkErr != nil {
			return nil, checkErr
		}
		return v, ErrAvailabilityPending
	}
	if err != nil {
		return nil, err
	}

	storeID := w.StoreID()
	if storeID == "" {
		store, createErr := s.backend.CreateStore(ctx, cred, w.CreateRequest())
		if errors.Is(createErr, domain.ErrConflict) {
			w.MarkSlugTaken()
			if _, err := s.save(ctx, id, w); err != nil {
				return nil, err
			}
			return nil, invalid("slug", msgSlugTaken)
		}
		if createErr != nil {
			return nil, fmt.Errorf("onboarding.Service.SubmitStoreInfo: %w", createErr)
		}
		storeID = store.ID
		log.Info().Str("store_id", storeID).Str("slug", store.Slug).Msg("onboarding: store created")
	}

	if err := w.SubmitStoreInfo(storeID); err != nil {
		return nil, err
	}
	savedAt, err := s.save(ctx, id, w)
	if err != nil {
		return nil, err
	}
	metrics.RecordOnboardingTransition(strconv.Itoa(w.Step()), "submit_store_info")
	return NewView(id, w, savedAt), nil
}

// ---------------------------------------------------------------------------
// Steps 2 and 3
// ---------------------------------------------------------------------------

func (s *Service) ContinueWelcome(ctx context.Context, id uuid.UUID) (*View, error) {
	return s.apply(ctx, id, "continue_welcome", (*Wizard).ContinueWelcome)
}

func (s *Service) Answer(ctx context.Context, id uuid.UUID, questionID, option string) (*View, error) {
	return s.apply(ctx, id, "answer", func(w *Wizard) error {
		return w.Answer(questionID, option)
	})
}

// NextQuestion advances the questionnaire; leaving the last question enters
// Step 4 and loads suggestions.
func (s *Service) NextQuestion(ctx context.Context, id uuid.UUID, cred backend.Credential) (*View, error) {
	return s.apply(ctx, id, "next_question", func(w *Wizard) error {
		if _, err := w.NextQuestion(); err != nil {
			return err
		}
		return s.fillSuggestions(ctx, cred, w, false)
	})
}

func (s *Service) PrevQuestion(ctx context.Context, id uuid.UUID) (*View, error) {
	return s.apply(ctx, id, "prev_question", (*Wizard).PrevQuestion)
}

func (s *Service) SkipQuestions(ctx context.Context, id uuid.UUID, cred backend.Credential) (*View, error) {
	return s.apply(ctx, id, "skip_questions", func(w *Wizard) error {
		if err := w.SkipQuestions(); err != nil {
			return err
		}
		return s.fillSuggestions(ctx, cred, w, false)
	})
}

// ---------------------------------------------------------------------------
// Step 4
// ---------------------------------------------------------------------------

// LoadSuggestions (re)requests branding suggestions from the backend.
func (s *Service) LoadSuggestions(ctx context.Context, id uuid.UUID, cred backend.Credential) (*View, error) {
	return s.apply(ctx, id, "load_suggestions", func(w *Wizard) error {
		if err := w.require("LoadSuggestions", StepBranding); err != nil {
			return err
		}
		return s.fillSuggestions(ctx, cred, w, true)
	})
}

// fillSuggestions installs suggestions for Step 4. Backend failures fall
// back to FallbackSuggestions.
func (s *Service) fillSuggestions(ctx context.Context, cred backend.Credential, w *Wizard, force bool) error {
	if !force && !w.NeedsSuggestions() {
		return nil
	}
	if w.StoreID() == "" {
		return w.SetSuggestions(FallbackSuggestions())
	}

	got, err := s.backend.AISuggestions(ctx, cred, w.StoreID(), w.SuggestionRequest())
	if err != nil {
		log.Warn().Err(err).Str("store_id", w.StoreID()).Msg("onboarding: suggestions unavailable, using fallback")
		return w.SetSuggestions(FallbackSuggestions())
	}
	return w.SetSuggestions(*got)
}

func (s *Service) Select(ctx context.Context, id uuid.UUID, kind, value string) (*View, error) {
	return s.apply(ctx, id, "select", func(w *Wizard) error {
		return w.Select(kind, value)
	})
}

func (s *Service) SubmitBranding(ctx context.Context, id uuid.UUID) (*View, error) {
	return s.apply(ctx, id, "submit_branding", (*Wizard).SubmitBranding)
}

func (s *Service) SkipBranding(ctx context.Context, id uuid.UUID) (*View, error) {
	return s.apply(ctx, id, "skip_branding", (*Wizard).SkipBranding)
}

// ---------------------------------------------------------------------------
// Step 5
// ---------------------------------------------------------------------------

// PostMessage appends a user chat message.
func (s *Service) PostMessage(ctx context.Context, id uuid.UUID, text string) (*View, error) {
	return s.apply(ctx, id, "chat_message", func(w *Wizard) error {
		return w.AddUserMessage(text)
	})
}

// Reply waits the reply delay and appends the assistant's answer.
func (s *Service) Reply(ctx context.Context, id uuid.UUID) (*View, error) {
	if s.replyDelay > 0 {
		t := time.NewTimer(s.replyDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("onboarding.Service.Reply: %w", ctx.Err())
		case <-t.C:
		}
	}
	return s.apply(ctx, id, "chat_reply", (*Wizard).AddAssistantReply)
}

// SendMessage posts a user message and waits for the assistant's reply.
func (s *Service) SendMessage(ctx context.Context, id uuid.UUID, text string) (*View, error) {
	if _, err := s.PostMessage(ctx, id, text); err != nil {
		return nil, err
	}
	return s.Reply(ctx, id)
}

// Complete finishes the wizard with the chat transcript.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, cred backend.Credential) (*Completion, error) {
	return s.finish(ctx, id, cred, "complete", func(w *Wizard) (Completion, error) {
		return w.Complete(s.mainDomain)
	})
}

// Skip finishes the wizard without the chat transcript.
func (s *Service) Skip(ctx context.Context, id uuid.UUID, cred backend.Credential) (*Completion, error) {
	return s.finish(ctx, id, cred, "skip", func(w *Wizard) (Completion, error) {
		return w.Skip(s.mainDomain)
	})
}

// finish completes the wizard, pushes any chosen branding to the store and
// clears the persisted draft.
func (s *Service) finish(ctx context.Context, id uuid.UUID, cred backend.Credential, op string, fn func(w *Wizard) (Completion, error)) (*Completion, error) {
	w, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := fn(w)
	if err != nil {
		return nil, err
	}

	if !c.Branding.Empty() && c.StoreID != "" {
		if err := s.backend.UpdateBranding(ctx, cred, c.StoreID, c.Branding); err != nil {
			log.Warn().Err(err).Str("store_id", c.StoreID).Msg("onboarding: branding update failed")
		}
	}

	if err := s.drafts.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("onboarding: clear draft failed")
		if _, saveErr := s.save(ctx, id, w); saveErr != nil {
			return nil, saveErr
		}
	}

	metrics.RecordOnboardingTransition("done", op)
	log.Info().Str("slug", c.Slug).Str("redirect", c.RedirectURL).Msg("onboarding: completed")
	return &c, nil
}

// Back returns to the previous step.
func (s *Service) Back(ctx context.Context, id uuid.UUID) (*View, error) {
	return s.apply(ctx, id, "back", (*Wizard).Back)
}
