package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockBackend struct {
	mu sync.Mutex

	checkSlugFunc      func(ctx context.Context, cred backend.Credential, slug string) (bool, error)
	createStoreFunc    func(ctx context.Context, cred backend.Credential, req domain.CreateStoreRequest) (*domain.Store, error)
	updateBrandingFunc func(ctx context.Context, cred backend.Credential, storeID string, update domain.BrandingUpdate) error
	aiSuggestionsFunc  func(ctx context.Context, cred backend.Credential, storeID string, req domain.SuggestionRequest) (*domain.Suggestions, error)

	creates  []domain.CreateStoreRequest
	branding []domain.BrandingUpdate
}

func (m *mockBackend) CheckSlug(ctx context.Context, cred backend.Credential, slug string) (bool, error) {
	if m.checkSlugFunc != nil {
		return m.checkSlugFunc(ctx, cred, slug)
	}
	return true, nil
}

func (m *mockBackend) CreateStore(ctx context.Context, cred backend.Credential, req domain.CreateStoreRequest) (*domain.Store, error) {
	m.mu.Lock()
	m.creates = append(m.creates, req)
	m.mu.Unlock()
	if m.createStoreFunc != nil {
		return m.createStoreFunc(ctx, cred, req)
	}
	return &domain.Store{ID: "st_1", Name: req.Name, Slug: req.Slug}, nil
}

func (m *mockBackend) UpdateBranding(ctx context.Context, cred backend.Credential, storeID string, update domain.BrandingUpdate) error {
	m.mu.Lock()
	m.branding = append(m.branding, update)
	m.mu.Unlock()
	if m.updateBrandingFunc != nil {
		return m.updateBrandingFunc(ctx, cred, storeID, update)
	}
	return nil
}

func (m *mockBackend) AISuggestions(ctx context.Context, cred backend.Credential, storeID string, req domain.SuggestionRequest) (*domain.Suggestions, error) {
	if m.aiSuggestionsFunc != nil {
		return m.aiSuggestionsFunc(ctx, cred, storeID, req)
	}
	return nil, domain.ErrUnavailable
}

type failingDeleteStore struct {
	*MemoryStore
}

func (f failingDeleteStore) Delete(context.Context, uuid.UUID) error {
	return errors.New("store down")
}

const testCred = backend.Credential("merchant-token")

func newTestService(be Backend) (*Service, *MemoryStore) {
	drafts := NewMemoryStore(time.Hour)
	return NewService(drafts, be, "mbuy.pro", 0), drafts
}

// toStep drives the session through the service to step with slug "my-shop".
func toStep(t *testing.T, s *Service, id uuid.UUID, step int) *View {
	t.Helper()
	ctx := t.Context()

	v, err := s.Start(ctx, id)
	require.NoError(t, err)
	_, err = s.SetName(ctx, id, "متجري")
	require.NoError(t, err)
	_, err = s.SetSlug(ctx, id, "my-shop")
	require.NoError(t, err)
	if step == StepStoreInfo {
		return v
	}

	_, err = s.CheckSlug(ctx, id, testCred)
	require.NoError(t, err)
	v, err = s.SubmitStoreInfo(ctx, id, testCred)
	require.NoError(t, err)
	if step == StepWelcome {
		return v
	}

	v, err = s.ContinueWelcome(ctx, id)
	require.NoError(t, err)
	if step == StepQuestions {
		return v
	}

	v, err = s.SkipQuestions(ctx, id, testCred)
	require.NoError(t, err)
	if step == StepBranding {
		return v
	}

	v, err = s.SkipBranding(ctx, id)
	require.NoError(t, err)
	return v
}

// ---------------------------------------------------------------------------
// Full flows
// ---------------------------------------------------------------------------

func TestService_AnswerAllSkipRest(t *testing.T) {
	t.Parallel()

	be := &mockBackend{}
	s, drafts := newTestService(be)
	ctx := t.Context()
	id := uuid.New()

	v, err := s.Start(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepStoreInfo, v.Step)
	assert.Equal(t, "الخطوة 1 من 5", v.Progress)

	v, err = s.SetName(ctx, id, "متجري")
	require.NoError(t, err)
	assert.Empty(t, v.Form.Slug, "arabic names derive no slug")

	_, err = s.SetSlug(ctx, id, "my-shop")
	require.NoError(t, err)

	// First submit triggers the check and reports it pending.
	v, err = s.SubmitStoreInfo(ctx, id, testCred)
	require.ErrorIs(t, err, ErrAvailabilityPending)
	require.NotNil(t, v)
	assert.Equal(t, AvailabilityAvailable, v.Availability)

	v, err = s.SubmitStoreInfo(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, StepWelcome, v.Step)
	assert.Equal(t, "st_1", v.StoreID)
	require.Len(t, be.creates, 1)
	assert.Equal(t, domain.CreateStoreRequest{Name: "متجري", Slug: "my-shop"}, be.creates[0])

	v, err = s.ContinueWelcome(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StepQuestions, v.Step)

	for _, q := range Questions() {
		require.NotNil(t, v.Question)
		assert.Equal(t, q.ID, v.Question.ID)
		_, err = s.Answer(ctx, id, q.ID, q.Options[0])
		require.NoError(t, err)
		v, err = s.NextQuestion(ctx, id, testCred)
		require.NoError(t, err)
	}

	require.Equal(t, StepBranding, v.Step)
	assert.Len(t, v.Draft.Answers, 4)
	require.NotNil(t, v.Suggestions, "backend failure falls back")
	assert.Equal(t, FallbackSuggestions(), *v.Suggestions)

	v, err = s.SkipBranding(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StepChat, v.Step)
	require.Len(t, v.Transcript, 1)

	c, err := s.Skip(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, "https://my-shop.mbuy.pro", c.RedirectURL)
	assert.Empty(t, be.branding, "nothing chosen, nothing pushed")

	_, err = drafts.Load(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// A later visit starts over.
	v, err = s.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepStoreInfo, v.Step)
	assert.True(t, v.Draft.IsEmpty())
}

func TestService_CompletePushesBranding(t *testing.T) {
	t.Parallel()

	be := &mockBackend{
		aiSuggestionsFunc: func(_ context.Context, cred backend.Credential, storeID string, req domain.SuggestionRequest) (*domain.Suggestions, error) {
			assert.Equal(t, testCred, cred)
			assert.Equal(t, "st_1", storeID)
			assert.Equal(t, "متجري", req.StoreName)
			return &domain.Suggestions{
				Logos:     []string{"https://cdn.example/a.png"},
				Gradients: []domain.Gradient{{Name: "sunset", Colors: []string{"#FF5500", "#AA0000"}}},
			}, nil
		},
		updateBrandingFunc: func(context.Context, backend.Credential, string, domain.BrandingUpdate) error {
			return domain.ErrUnavailable
		},
	}
	s, drafts := newTestService(be)
	ctx := t.Context()
	id := uuid.New()

	v := toStep(t, s, id, StepBranding)
	require.NotNil(t, v.Suggestions)
	assert.Equal(t, []string{"https://cdn.example/a.png"}, v.Suggestions.Logos)
	assert.Empty(t, v.Suggestions.Themes)

	_, err := s.Select(ctx, id, SelectLogo, "https://cdn.example/a.png")
	require.NoError(t, err)
	v, err = s.Select(ctx, id, SelectGradient, "sunset")
	require.NoError(t, err)
	assert.Equal(t, "#FF5500", v.Selection.PrimaryColor)

	_, err = s.SubmitBranding(ctx, id)
	require.NoError(t, err)
	v, err = s.SendMessage(ctx, id, "متجر هادئ")
	require.NoError(t, err)
	require.Len(t, v.Transcript, 3)
	assert.Equal(t, CannedReply, v.Transcript[2].Content)

	// A failed branding push does not fail completion.
	c, err := s.Complete(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, "https://my-shop.mbuy.pro", c.RedirectURL)
	require.Len(t, be.branding, 1)
	assert.Equal(t, domain.BrandingUpdate{LogoURL: "https://cdn.example/a.png", PrimaryColor: "#FF5500"}, be.branding[0])

	_, err = drafts.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestService_ResumesAfterReload(t *testing.T) {
	t.Parallel()

	drafts := NewMemoryStore(time.Hour)
	id := uuid.New()

	first := NewService(drafts, &mockBackend{}, "mbuy.pro", 0)
	toStep(t, first, id, StepQuestions)

	// A new process sharing the store picks up where the session left off.
	second := NewService(drafts, &mockBackend{}, "mbuy.pro", 0)
	v, err := second.State(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, StepQuestions, v.Step)
	assert.Equal(t, "متجري", v.Draft.Name)
	assert.Equal(t, "my-shop", v.Draft.Slug)
	assert.Equal(t, "st_1", v.StoreID)
	assert.True(t, v.WarnOnLeave)
	assert.False(t, v.SavedAt.IsZero())
}

func TestService_DiscardsUnreadableDraft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "future version", data: `{"version":7,"draft":{"name":"x"},"step_index":4}`},
		{name: "garbage", data: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, drafts := newTestService(&mockBackend{})
			ctx := t.Context()
			id := uuid.New()
			require.NoError(t, drafts.Save(ctx, id, []byte(tt.data)))

			v, err := s.State(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, StepStoreInfo, v.Step)
			assert.True(t, v.Draft.IsEmpty())

			_, err = drafts.Load(ctx, id)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestService_FailedOperationSavesNothing(t *testing.T) {
	t.Parallel()

	s, drafts := newTestService(&mockBackend{})
	ctx := t.Context()
	id := uuid.New()
	toStep(t, s, id, StepStoreInfo)

	before, err := drafts.Load(ctx, id)
	require.NoError(t, err)

	_, err = s.ContinueWelcome(ctx, id)
	require.ErrorIs(t, err, ErrInvalidStep)

	after, err := drafts.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_KeepsCompletedDraftWhenDeleteFails(t *testing.T) {
	t.Parallel()

	mem := NewMemoryStore(time.Hour)
	s := NewService(failingDeleteStore{mem}, &mockBackend{}, "mbuy.pro", 0)
	ctx := t.Context()
	id := uuid.New()
	toStep(t, s, id, StepChat)

	c, err := s.Complete(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, "my-shop", c.Slug)

	// The stored wizard is marked completed so it cannot be finished twice.
	_, err = s.Skip(ctx, id, testCred)
	require.ErrorIs(t, err, ErrInvalidStep)
}

// ---------------------------------------------------------------------------
// Step 1
// ---------------------------------------------------------------------------

func TestService_StaleCheckDropped(t *testing.T) {
	t.Parallel()

	var s *Service
	ctx := t.Context()
	id := uuid.New()

	be := &mockBackend{}
	be.checkSlugFunc = func(ctx context.Context, _ backend.Credential, slug string) (bool, error) {
		if slug == "first" {
			// The user edits the slug while this check is in flight.
			_, err := s.SetSlug(ctx, id, "second")
			require.NoError(t, err)
		}
		return true, nil
	}
	s, _ = newTestService(be)

	_, err := s.Start(ctx, id)
	require.NoError(t, err)
	_, err = s.SetSlug(ctx, id, "first")
	require.NoError(t, err)

	v, err := s.CheckSlug(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, "second", v.Form.Slug)
	assert.Equal(t, AvailabilityUnknown, v.Availability)

	v, err = s.CheckSlug(ctx, id, testCred)
	require.NoError(t, err)
	assert.Equal(t, AvailabilityAvailable, v.Availability)
}

func TestService_CheckSlugOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		slug      string
		available bool
		err       error
		want      Availability
		wantCall  bool
	}{
		{name: "available", slug: "shop", available: true, want: AvailabilityAvailable, wantCall: true},
		{name: "taken", slug: "shop", want: AvailabilityTaken, wantCall: true},
		{name: "backend error", slug: "shop", err: domain.ErrUnavailable, want: AvailabilityError, wantCall: true},
		{name: "malformed slug not sent", slug: "shop-", want: AvailabilityUnknown},
		{name: "empty slug not sent", slug: "", want: AvailabilityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			be := &mockBackend{checkSlugFunc: func(_ context.Context, cred backend.Credential, slug string) (bool, error) {
				called = true
				assert.Equal(t, testCred, cred)
				assert.Equal(t, tt.slug, slug)
				return tt.available, tt.err
			}}
			s, _ := newTestService(be)
			ctx := t.Context()
			id := uuid.New()

			_, err := s.SetSlug(ctx, id, tt.slug)
			require.NoError(t, err)
			v, err := s.CheckSlug(ctx, id, testCred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Availability)
			assert.Equal(t, tt.wantCall, called)
		})
	}
}

func TestService_SubmitStoreInfoErrors(t *testing.T) {
	t.Parallel()

	t.Run("taken at check", func(t *testing.T) {
		t.Parallel()

		be := &mockBackend{checkSlugFunc: func(context.Context, backend.Credential, string) (bool, error) { return false, nil }}
		s, _ := newTestService(be)
		id := uuid.New()
		toStep(t, s, id, StepStoreInfo)

		_, err := s.CheckSlug(t.Context(), id, testCred)
		require.NoError(t, err)
		_, err = s.SubmitStoreInfo(t.Context(), id, testCred)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "slug", ve.Field)
		assert.Empty(t, be.creates)
	})

	t.Run("conflict at creation", func(t *testing.T) {
		t.Parallel()

		be := &mockBackend{createStoreFunc: func(context.Context, backend.Credential, domain.CreateStoreRequest) (*domain.Store, error) {
			return nil, &backend.StatusError{Op: "CreateStore", StatusCode: 409}
		}}
		s, _ := newTestService(be)
		id := uuid.New()
		toStep(t, s, id, StepStoreInfo)
		_, err := s.CheckSlug(t.Context(), id, testCred)
		require.NoError(t, err)

		_, err = s.SubmitStoreInfo(t.Context(), id, testCred)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "slug", ve.Field)

		v, err := s.State(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, StepStoreInfo, v.Step)
		assert.Equal(t, AvailabilityTaken, v.Availability)
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()

		be := &mockBackend{createStoreFunc: func(context.Context, backend.Credential, domain.CreateStoreRequest) (*domain.Store, error) {
			return nil, &backend.StatusError{Op: "CreateStore", StatusCode: 401}
		}}
		s, _ := newTestService(be)
		id := uuid.New()
		toStep(t, s, id, StepStoreInfo)
		_, err := s.CheckSlug(t.Context(), id, testCred)
		require.NoError(t, err)

		_, err = s.SubmitStoreInfo(t.Context(), id, testCred)
		require.ErrorIs(t, err, domain.ErrUnauthorized)

		v, err := s.State(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, StepStoreInfo, v.Step)
	})
}

func TestService_StoreCreatedOnce(t *testing.T) {
	t.Parallel()

	be := &mockBackend{}
	s, _ := newTestService(be)
	ctx := t.Context()
	id := uuid.New()
	toStep(t, s, id, StepWelcome)

	_, err := s.Back(ctx, id)
	require.NoError(t, err)
	_, err = s.SetName(ctx, id, "اسم جديد")
	require.NoError(t, err)
	v, err := s.SubmitStoreInfo(ctx, id, testCred)
	require.NoError(t, err)

	assert.Equal(t, StepWelcome, v.Step)
	assert.Equal(t, "اسم جديد", v.Draft.Name)
	assert.Len(t, be.creates, 1)
}

// ---------------------------------------------------------------------------
// Steps 4 and 5
// ---------------------------------------------------------------------------

func TestService_LoadSuggestions(t *testing.T) {
	t.Parallel()

	calls := 0
	be := &mockBackend{aiSuggestionsFunc: func(context.Context, backend.Credential, string, domain.SuggestionRequest) (*domain.Suggestions, error) {
		calls++
		if calls == 1 {
			return nil, domain.ErrUnavailable
		}
		return &domain.Suggestions{Themes: []domain.ThemePreview{{ID: "classic", Name: "كلاسيكي"}}}, nil
	}}
	s, _ := newTestService(be)
	ctx := t.Context()
	id := uuid.New()

	v := toStep(t, s, id, StepBranding)
	assert.Len(t, v.Suggestions.Themes, 3)

	v, err := s.LoadSuggestions(ctx, id, testCred)
	require.NoError(t, err)
	require.Len(t, v.Suggestions.Themes, 1)
	assert.Equal(t, "classic", v.Suggestions.Themes[0].ID)
	assert.Equal(t, 2, calls)

	_, err = s.Back(ctx, id)
	require.NoError(t, err)
	_, err = s.LoadSuggestions(ctx, id, testCred)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestService_ReplyHonorsContext(t *testing.T) {
	t.Parallel()

	drafts := NewMemoryStore(time.Hour)
	s := NewService(drafts, &mockBackend{}, "mbuy.pro", time.Hour)
	id := uuid.New()
	toStep(t, s, id, StepChat)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.SendMessage(ctx, id, "مرحبا")
	require.ErrorIs(t, err, context.Canceled)

	v, err := s.State(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, v.Transcript, 2, "user message kept, no reply")
	assert.Equal(t, RoleUser, v.Transcript[1].Role)
}

func TestService_PostMessageRejectsEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(&mockBackend{})
	id := uuid.New()
	toStep(t, s, id, StepChat)

	_, err := s.PostMessage(t.Context(), id, " \n ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Field)
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time { return now }
	ctx := t.Context()
	id := uuid.New()

	require.NoError(t, m.Save(ctx, id, []byte("a")))
	got, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	// Saving slides the expiry.
	now = now.Add(50 * time.Second)
	require.NoError(t, m.Save(ctx, id, []byte("b")))
	now = now.Add(50 * time.Second)
	_, err = m.Load(ctx, id)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Load(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	t.Parallel()

	m := NewMemoryStore(time.Minute)
	ctx := t.Context()
	id := uuid.New()

	data := []byte("abc")
	require.NoError(t, m.Save(ctx, id, data))
	data[0] = 'x'

	got, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	require.NoError(t, m.Delete(ctx, id))
	_, err = m.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, m.Save(ctx, uuid.New(), []byte("x")))
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	go m.Sweep(ctx, time.Millisecond)

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.entries) == 0
	}, time.Second, 5*time.Millisecond)
}
