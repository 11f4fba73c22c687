// Package onboarding implements the five-step store creation wizard.
//
// A Wizard is a pure state machine: it validates inputs and moves between
// steps but performs no I/O. Service drives it against the backend and
// persists it between requests.
package onboarding

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mbuy/stores/internal/domain"
)

// Steps of the wizard.
const (
	StepStoreInfo = 1
	StepWelcome   = 2
	StepQuestions = 3
	StepBranding  = 4
	StepChat      = 5

	FirstStep = StepStoreInfo
	LastStep  = StepChat
)

// Availability is the state of the slug availability check.
type Availability string

const (
	AvailabilityUnknown   Availability = "unknown"
	AvailabilityChecking  Availability = "checking"
	AvailabilityAvailable Availability = "available"
	AvailabilityTaken     Availability = "taken"
	AvailabilityError     Availability = "error"
)

// Branding selection categories.
const (
	SelectLogo     = "logo"
	SelectGradient = "gradient"
	SelectTheme    = "theme"
)

// StoreForm holds the Step 1 inputs as currently typed.
type StoreForm struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	City        string `json:"city"`
}

// Selection is the Step 4 choice, at most one per category.
type Selection struct {
	Logo         string `json:"logo,omitempty"`
	Gradient     string `json:"gradient,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
	Theme        string `json:"theme,omitempty"`
}

// UIState is the per-step state that is not part of the draft.
type UIState struct {
	Form              StoreForm           `json:"form"`
	SlugTouched       bool                `json:"slug_touched"`
	Availability      Availability        `json:"availability"`
	AvailabilityError string              `json:"availability_error,omitempty"`
	CheckedSlug       string              `json:"checked_slug,omitempty"`
	CheckGen          uint64              `json:"check_gen"`
	StoreID           string              `json:"store_id,omitempty"`
	QuestionIndex     int                 `json:"question_index"`
	Answers           map[string]string   `json:"answers,omitempty"`
	Suggestions       *domain.Suggestions `json:"suggestions,omitempty"`
	Selection         Selection           `json:"selection"`
	Transcript        []ChatMessage       `json:"transcript,omitempty"`
}

// Completion is the outcome of finishing the wizard.
type Completion struct {
	StoreID     string          `json:"store_id,omitempty"`
	Slug        string          `json:"slug"`
	RedirectURL string          `json:"redirect_url"`
	Branding    domain.Branding `json:"branding"`
}

// Wizard is the onboarding state machine. The zero value is not usable; use NewWizard.
type Wizard struct {
	step      int
	draft     Draft
	ui        UIState
	completed bool
}

// NewWizard returns a wizard at Step 1 with an empty draft.
func NewWizard() *Wizard {
	return &Wizard{
		step: StepStoreInfo,
		ui:   UIState{Availability: AvailabilityUnknown},
	}
}

func (w *Wizard) Step() int       { return w.step }
func (w *Wizard) Draft() Draft    { return w.draft.clone() }
func (w *Wizard) Completed() bool { return w.completed }
func (w *Wizard) StoreID() string { return w.ui.StoreID }

// UI returns a copy of the per-step state.
func (w *Wizard) UI() UIState {
	ui := w.ui
	ui.Answers = maps.Clone(w.ui.Answers)
	ui.Transcript = slices.Clone(w.ui.Transcript)
	if w.ui.Suggestions != nil {
		s := *w.ui.Suggestions
		ui.Suggestions = &s
	}
	return ui
}

// WarnOnLeave reports whether leaving now would lose entered data.
func (w *Wizard) WarnOnLeave() bool {
	return !w.draft.IsEmpty() && !w.completed
}

// CurrentQuestion returns the Step 3 question being asked.
func (w *Wizard) CurrentQuestion() Question {
	return Questions()[w.ui.QuestionIndex]
}

func (w *Wizard) require(op string, step int) error {
	if w.completed {
		return fmt.Errorf("onboarding.Wizard.%s: wizard completed: %w", op, ErrInvalidStep)
	}
	if w.step != step {
		return wrongStep(op, step, w.step)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Step 1: store info
// ---------------------------------------------------------------------------

// SetName updates the store name. Until the slug is edited by hand it is
// derived from the name.
func (w *Wizard) SetName(name string) error {
	if err := w.require("SetName", StepStoreInfo); err != nil {
		return err
	}
	w.ui.Form.Name = name
	if !w.ui.SlugTouched && w.ui.StoreID == "" {
		w.setSlug(domain.Slugify(name))
	}
	return nil
}

// SetSlug records a manual slug edit and stops name derivation. The input is
// filtered to lowercase letters, digits and hyphens; the filtered slug is returned.
func (w *Wizard) SetSlug(raw string) (string, error) {
	if err := w.require("SetSlug", StepStoreInfo); err != nil {
		return "", err
	}
	cleaned := domain.CleanSlugInput(raw)
	if w.ui.StoreID != "" {
		if cleaned != w.ui.Form.Slug {
			return w.ui.Form.Slug, invalid("slug", msgSlugLocked)
		}
		return cleaned, nil
	}
	w.ui.SlugTouched = true
	w.setSlug(cleaned)
	return cleaned, nil
}

func (w *Wizard) setSlug(slug string) {
	if slug == w.ui.Form.Slug {
		return
	}
	w.ui.Form.Slug = slug
	w.ui.Availability = AvailabilityUnknown
	w.ui.AvailabilityError = ""
	w.ui.CheckedSlug = ""
}

// SetDetails updates the optional description and city.
func (w *Wizard) SetDetails(description, city string) error {
	if err := w.require("SetDetails", StepStoreInfo); err != nil {
		return err
	}
	w.ui.Form.Description = description
	w.ui.Form.City = city
	return nil
}

// BeginCheck starts an availability check for the current slug and returns
// its generation. ok is false when the slug is empty or malformed, in which
// case no check is needed.
func (w *Wizard) BeginCheck() (gen uint64, slug string, ok bool) {
	slug = w.ui.Form.Slug
	if slug == "" || !domain.ValidateSlug(slug) {
		w.ui.Availability = AvailabilityUnknown
		return 0, slug, false
	}
	w.ui.CheckGen++
	w.ui.Availability = AvailabilityChecking
	w.ui.AvailabilityError = ""
	w.ui.CheckedSlug = slug
	return w.ui.CheckGen, slug, true
}

// ResolveCheck applies the result of check gen. Results of superseded checks
// are dropped and false is returned.
func (w *Wizard) ResolveCheck(gen uint64, available bool, checkErr error) bool {
	if gen != w.ui.CheckGen || w.ui.CheckedSlug != w.ui.Form.Slug {
		return false
	}
	switch {
	case checkErr != nil:
		w.ui.Availability = AvailabilityError
		w.ui.AvailabilityError = msgSlugCheckFailed
	case available:
		w.ui.Availability = AvailabilityAvailable
	default:
		w.ui.Availability = AvailabilityTaken
		w.ui.AvailabilityError = msgSlugTaken
	}
	return true
}

// MarkSlugTaken records a conflict reported at store creation.
func (w *Wizard) MarkSlugTaken() {
	w.ui.Availability = AvailabilityTaken
	w.ui.AvailabilityError = msgSlugTaken
	w.ui.CheckedSlug = w.ui.Form.Slug
}

// ValidateStoreInfo checks the Step 1 form. It returns a *ValidationError for
// a bad field and ErrAvailabilityPending when the slug has not been confirmed free.
func (w *Wizard) ValidateStoreInfo() error {
	if err := w.require("ValidateStoreInfo", StepStoreInfo); err != nil {
		return err
	}
	f := w.ui.Form
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", msgNameRequired)
	}
	if strings.TrimSpace(f.Slug) == "" {
		return invalid("slug", msgSlugRequired)
	}
	if !domain.ValidateSlug(f.Slug) {
		return invalid("slug", msgSlugInvalid)
	}
	if w.ui.StoreID != "" {
		return nil
	}
	switch w.ui.Availability {
	case AvailabilityAvailable:
		return nil
	case AvailabilityTaken:
		return invalid("slug", msgSlugTaken)
	default:
		return ErrAvailabilityPending
	}
}

// CreateRequest is the backend payload for the current form.
func (w *Wizard) CreateRequest() domain.CreateStoreRequest {
	f := w.ui.Form
	return domain.CreateStoreRequest{
		Name:        strings.TrimSpace(f.Name),
		Slug:        f.Slug,
		Description: f.Description,
		City:        f.City,
	}
}

// SubmitStoreInfo merges the validated form into the draft and advances to
// Step 2. storeID is the backend id of the created store; once set the slug
// can no longer change.
func (w *Wizard) SubmitStoreInfo(storeID string) error {
	if err := w.ValidateStoreInfo(); err != nil {
		return err
	}
	if w.ui.StoreID == "" {
		w.ui.StoreID = storeID
	}
	f := w.ui.Form
	w.draft = w.draft.Merge(Patch{
		Name:        ptr(strings.TrimSpace(f.Name)),
		Slug:        ptr(f.Slug),
		Description: ptr(f.Description),
		City:        ptr(f.City),
	})
	w.step = StepWelcome
	return nil
}

// ---------------------------------------------------------------------------
// Step 2: welcome
// ---------------------------------------------------------------------------

// ContinueWelcome advances past the welcome screen.
func (w *Wizard) ContinueWelcome() error {
	if err := w.require("ContinueWelcome", StepWelcome); err != nil {
		return err
	}
	w.step = StepQuestions
	return nil
}

// ---------------------------------------------------------------------------
// Step 3: questions
// ---------------------------------------------------------------------------

// Answer records the option chosen for the current question.
func (w *Wizard) Answer(questionID, option string) error {
	if err := w.require("Answer", StepQuestions); err != nil {
		return err
	}
	q := w.CurrentQuestion()
	if questionID != q.ID {
		return invalid("question_id", fmt.Sprintf("expected %s", q.ID))
	}
	if !q.hasOption(option) {
		return invalid("answer", msgUnknownOption)
	}
	if w.ui.Answers == nil {
		w.ui.Answers = make(map[string]string, len(questions))
	}
	w.ui.Answers[questionID] = option
	return nil
}

// NextQuestion moves to the next question. After the last one the answers are
// merged into the draft, the wizard advances to Step 4 and done is true.
func (w *Wizard) NextQuestion() (done bool, err error) {
	if err := w.require("NextQuestion", StepQuestions); err != nil {
		return false, err
	}
	q := w.CurrentQuestion()
	if w.ui.Answers[q.ID] == "" {
		return false, invalid("answer", msgAnswerRequired)
	}
	if w.ui.QuestionIndex < len(questions)-1 {
		w.ui.QuestionIndex++
		return false, nil
	}
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = w.ui.Answers[q.ID]
	}
	w.draft = w.draft.Merge(Patch{Answers: answers, Skipped: ptr(false)})
	w.enterBranding()
	return true, nil
}

// PrevQuestion moves to the previous question; from the first question it
// steps the wizard back.
func (w *Wizard) PrevQuestion() error {
	if err := w.require("PrevQuestion", StepQuestions); err != nil {
		return err
	}
	if w.ui.QuestionIndex > 0 {
		w.ui.QuestionIndex--
		return nil
	}
	return w.Back()
}

// SkipQuestions leaves the questionnaire with no answers.
func (w *Wizard) SkipQuestions() error {
	if err := w.require("SkipQuestions", StepQuestions); err != nil {
		return err
	}
	w.draft = w.draft.Merge(Patch{Answers: map[string]string{}, Skipped: ptr(true)})
	w.enterBranding()
	return nil
}

func (w *Wizard) enterBranding() {
	w.step = StepBranding
}

// ---------------------------------------------------------------------------
// Step 4: branding
// ---------------------------------------------------------------------------

// NeedsSuggestions reports whether Step 4 has nothing to offer yet.
func (w *Wizard) NeedsSuggestions() bool {
	return w.step == StepBranding && w.ui.Suggestions == nil
}

// SuggestionRequest is the backend payload built from the draft.
func (w *Wizard) SuggestionRequest() domain.SuggestionRequest {
	return domain.SuggestionRequest{
		StoreName:   w.draft.Name,
		Description: w.draft.Description,
		Answers:     maps.Clone(w.draft.Answers),
	}
}

// SetSuggestions installs the suggestions offered in Step 4. An empty set is
// replaced by FallbackSuggestions. Selections no longer offered are cleared.
func (w *Wizard) SetSuggestions(s domain.Suggestions) error {
	if err := w.require("SetSuggestions", StepBranding); err != nil {
		return err
	}
	if s.Empty() {
		s = FallbackSuggestions()
	}
	w.ui.Suggestions = &s

	sel := w.ui.Selection
	if sel.Logo != "" && !slices.Contains(s.Logos, sel.Logo) {
		sel.Logo = ""
	}
	if sel.Gradient != "" && findGradient(s, sel.Gradient) == nil {
		sel.Gradient, sel.PrimaryColor = "", ""
	}
	if sel.Theme != "" && !slices.ContainsFunc(s.Themes, func(t domain.ThemePreview) bool { return t.ID == sel.Theme }) {
		sel.Theme = ""
	}
	w.ui.Selection = sel
	return nil
}

// Select chooses value in category kind, replacing any earlier choice. An
// empty value clears the category. Gradients are chosen by name and record
// their first color as the primary color.
func (w *Wizard) Select(kind, value string) error {
	if err := w.require("Select", StepBranding); err != nil {
		return err
	}
	if w.ui.Suggestions == nil {
		return fmt.Errorf("onboarding.Wizard.Select: suggestions not loaded: %w", ErrInvalidStep)
	}
	s := w.ui.Suggestions

	switch kind {
	case SelectLogo:
		if value != "" && !slices.Contains(s.Logos, value) {
			return invalid(kind, msgUnknownOption)
		}
		w.ui.Selection.Logo = value
	case SelectGradient:
		if value == "" {
			w.ui.Selection.Gradient, w.ui.Selection.PrimaryColor = "", ""
			return nil
		}
		g := findGradient(*s, value)
		if g == nil {
			return invalid(kind, msgUnknownOption)
		}
		w.ui.Selection.Gradient = g.Name
		w.ui.Selection.PrimaryColor = g.Primary()
	case SelectTheme:
		if value != "" && !slices.ContainsFunc(s.Themes, func(t domain.ThemePreview) bool { return t.ID == value }) {
			return invalid(kind, msgUnknownOption)
		}
		w.ui.Selection.Theme = value
	default:
		return invalid("kind", fmt.Sprintf("unknown category %q", kind))
	}
	return nil
}

func findGradient(s domain.Suggestions, name string) *domain.Gradient {
	for i := range s.Gradients {
		if s.Gradients[i].Name == name {
			return &s.Gradients[i]
		}
	}
	return nil
}

// SubmitBranding merges the selection into the draft and advances to Step 5.
func (w *Wizard) SubmitBranding() error {
	if err := w.require("SubmitBranding", StepBranding); err != nil {
		return err
	}
	sel := w.ui.Selection
	w.draft = w.draft.Merge(Patch{Branding: &domain.Branding{
		LogoURL:      sel.Logo,
		PrimaryColor: sel.PrimaryColor,
		ThemeID:      sel.Theme,
	}})
	w.enterChat()
	return nil
}

// SkipBranding advances to Step 5 without touching the draft.
func (w *Wizard) SkipBranding() error {
	if err := w.require("SkipBranding", StepBranding); err != nil {
		return err
	}
	w.enterChat()
	return nil
}

// ---------------------------------------------------------------------------
// Step 5: chat and completion
// ---------------------------------------------------------------------------

// Greeting is the assistant's opening message for a store.
func Greeting(storeName string) string {
	return fmt.Sprintf("مرحباً! أنا مساعدك الذكي. سأساعدك في إكمال هوية متجرك \"%s\". هل لديك أي أسئلة أو تريد إضافة أي تفاصيل؟", storeName)
}

// CannedReply is the assistant's answer to every user message.
const CannedReply = "شكراً لك! سأقوم بتحديث هوية متجرك بناءً على ما ذكرته."

func (w *Wizard) enterChat() {
	w.step = StepChat
	if len(w.ui.Transcript) == 0 {
		w.ui.Transcript = []ChatMessage{{Role: RoleAssistant, Content: Greeting(w.draft.Name)}}
	}
}

// Transcript returns the chat so far.
func (w *Wizard) Transcript() []ChatMessage {
	return slices.Clone(w.ui.Transcript)
}

// AddUserMessage appends a user chat message.
func (w *Wizard) AddUserMessage(text string) error {
	if err := w.require("AddUserMessage", StepChat); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return invalid("message", msgEmptyMessage)
	}
	w.ui.Transcript = append(w.ui.Transcript, ChatMessage{Role: RoleUser, Content: text})
	return nil
}

// AddAssistantReply appends the canned assistant reply.
func (w *Wizard) AddAssistantReply() error {
	if err := w.require("AddAssistantReply", StepChat); err != nil {
		return err
	}
	w.ui.Transcript = append(w.ui.Transcript, ChatMessage{Role: RoleAssistant, Content: CannedReply})
	return nil
}

// Complete finalizes the draft with the chat transcript.
func (w *Wizard) Complete(mainDomain string) (Completion, error) {
	if err := w.require("Complete", StepChat); err != nil {
		return Completion{}, err
	}
	w.draft = w.draft.Merge(Patch{ChatHistory: slices.Clone(w.ui.Transcript)})
	return w.finish(mainDomain)
}

// Skip finalizes the draft without the chat transcript.
func (w *Wizard) Skip(mainDomain string) (Completion, error) {
	if err := w.require("Skip", StepChat); err != nil {
		return Completion{}, err
	}
	return w.finish(mainDomain)
}

func (w *Wizard) finish(mainDomain string) (Completion, error) {
	slug := w.draft.Slug
	if slug == "" {
		return Completion{}, invalid("slug", msgSlugRequired)
	}
	w.completed = true

	c := Completion{
		StoreID:     w.ui.StoreID,
		Slug:        slug,
		RedirectURL: domain.StoreURL(slug, mainDomain),
	}
	if w.draft.Branding != nil {
		c.Branding = *w.draft.Branding
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Back returns to the previous step. Step 1 has no previous step.
func (w *Wizard) Back() error {
	if w.completed {
		return fmt.Errorf("onboarding.Wizard.Back: wizard completed: %w", ErrInvalidStep)
	}
	if w.step <= FirstStep {
		return fmt.Errorf("onboarding.Wizard.Back: already at step %d: %w", w.step, ErrInvalidStep)
	}
	w.step--
	if w.step == StepQuestions {
		w.ui.QuestionIndex = len(questions) - 1
	}
	return nil
}
