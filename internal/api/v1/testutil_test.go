package v1_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/mbuy/stores/internal/api/v1"
	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the session and merchant credential for DoCtx
// ---------------------------------------------------------------------------

func sessionCtx(id uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeySessionID, id)
}

func merchantCtx(id uuid.UUID, cred string) context.Context {
	return context.WithValue(sessionCtx(id), middleware.ContextKeyCredential, cred)
}

// ---------------------------------------------------------------------------
// Mock SessionIssuer
// ---------------------------------------------------------------------------

type mockIssuer struct {
	issueFunc func() (uuid.UUID, string, error)
}

func (m *mockIssuer) Issue() (uuid.UUID, string, error) {
	return m.issueFunc()
}

// ---------------------------------------------------------------------------
// Mock OnboardingService
// ---------------------------------------------------------------------------

// mockService overrides selected operations; the rest panic through the
// nil embedded interface.
type mockService struct {
	v1.OnboardingService

	stateFunc     func(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
	setNameFunc   func(ctx context.Context, id uuid.UUID, name string) (*onboarding.View, error)
	checkSlugFunc func(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error)
	sendFunc      func(ctx context.Context, id uuid.UUID, text string) (*onboarding.View, error)
	completeFunc  func(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.Completion, error)
}

func (m *mockService) State(ctx context.Context, id uuid.UUID) (*onboarding.View, error) {
	return m.stateFunc(ctx, id)
}

func (m *mockService) SetName(ctx context.Context, id uuid.UUID, name string) (*onboarding.View, error) {
	return m.setNameFunc(ctx, id, name)
}

func (m *mockService) CheckSlug(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.View, error) {
	return m.checkSlugFunc(ctx, id, cred)
}

func (m *mockService) SendMessage(ctx context.Context, id uuid.UUID, text string) (*onboarding.View, error) {
	return m.sendFunc(ctx, id, text)
}

func (m *mockService) Complete(ctx context.Context, id uuid.UUID, cred backend.Credential) (*onboarding.Completion, error) {
	return m.completeFunc(ctx, id, cred)
}

// ---------------------------------------------------------------------------
// Mock ViewPublisher
// ---------------------------------------------------------------------------

type mockPublisher struct {
	mu    sync.Mutex
	views []*onboarding.View
	err   error
}

func (m *mockPublisher) PublishView(_ context.Context, _ uuid.UUID, view *onboarding.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, view)
	return m.err
}

// ---------------------------------------------------------------------------
// Mock store backend, for tests running the real onboarding.Service
// ---------------------------------------------------------------------------

type mockBackend struct {
	mu sync.Mutex

	checkSlugFunc   func(ctx context.Context, cred backend.Credential, slug string) (bool, error)
	createStoreFunc func(ctx context.Context, cred backend.Credential, req domain.CreateStoreRequest) (*domain.Store, error)

	creds    []backend.Credential
	branding []domain.BrandingUpdate
}

func (m *mockBackend) CheckSlug(ctx context.Context, cred backend.Credential, slug string) (bool, error) {
	m.record(cred)
	if m.checkSlugFunc != nil {
		return m.checkSlugFunc(ctx, cred, slug)
	}
	return true, nil
}

func (m *mockBackend) CreateStore(ctx context.Context, cred backend.Credential, req domain.CreateStoreRequest) (*domain.Store, error) {
	m.record(cred)
	if m.createStoreFunc != nil {
		return m.createStoreFunc(ctx, cred, req)
	}
	return &domain.Store{ID: "st_1", Name: req.Name, Slug: req.Slug}, nil
}

func (m *mockBackend) UpdateBranding(_ context.Context, cred backend.Credential, _ string, update domain.BrandingUpdate) error {
	m.record(cred)
	m.mu.Lock()
	m.branding = append(m.branding, update)
	m.mu.Unlock()
	return nil
}

func (m *mockBackend) AISuggestions(_ context.Context, _ backend.Credential, _ string, _ domain.SuggestionRequest) (*domain.Suggestions, error) {
	return nil, domain.ErrUnavailable
}

func (m *mockBackend) record(cred backend.Credential) {
	m.mu.Lock()
	m.creds = append(m.creds, cred)
	m.mu.Unlock()
}

func newService(be *mockBackend) *onboarding.Service {
	return onboarding.NewService(onboarding.NewMemoryStore(time.Hour), be, domain.DefaultMainDomain, 0)
}
