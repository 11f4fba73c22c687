package onboarding

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbuy/stores/internal/domain"
)

// View is the wizard state as shown to the client.
type View struct {
	SessionID         uuid.UUID           `json:"session_id"`
	Step              int                 `json:"step"`
	TotalSteps        int                 `json:"total_steps"`
	Progress          string              `json:"progress"`
	Draft             Draft               `json:"draft"`
	Form              StoreForm           `json:"form"`
	SlugTouched       bool                `json:"slug_touched"`
	Availability      Availability        `json:"availability"`
	AvailabilityError string              `json:"availability_error,omitempty"`
	StoreID           string              `json:"store_id,omitempty"`
	Question          *Question           `json:"question,omitempty"`
	QuestionIndex     int                 `json:"question_index"`
	QuestionCount     int                 `json:"question_count"`
	Answers           map[string]string   `json:"answers,omitempty"`
	Suggestions       *domain.Suggestions `json:"suggestions,omitempty"`
	Selection         Selection           `json:"selection"`
	Transcript        []ChatMessage       `json:"transcript,omitempty"`
	WarnOnLeave       bool                `json:"warn_on_leave"`
	SavedAt           time.Time           `json:"saved_at"`
}

// ProgressLabel is the step counter shown above the wizard.
func ProgressLabel(step int) string {
	return fmt.Sprintf("الخطوة %d من %d", step, LastStep)
}

// NewView builds the client view of w.
func NewView(sessionID uuid.UUID, w *Wizard, savedAt time.Time) *View {
	ui := w.UI()
	v := &View{
		SessionID:         sessionID,
		Step:              w.Step(),
		TotalSteps:        LastStep,
		Progress:          ProgressLabel(w.Step()),
		Draft:             w.Draft(),
		Form:              ui.Form,
		SlugTouched:       ui.SlugTouched,
		Availability:      ui.Availability,
		AvailabilityError: ui.AvailabilityError,
		StoreID:           ui.StoreID,
		QuestionIndex:     ui.QuestionIndex,
		QuestionCount:     len(questions),
		Answers:           ui.Answers,
		Suggestions:       ui.Suggestions,
		Selection:         ui.Selection,
		Transcript:        ui.Transcript,
		WarnOnLeave:       w.WarnOnLeave(),
		SavedAt:           savedAt,
	}
	if w.Step() == StepQuestions {
		q := w.CurrentQuestion()
		v.Question = &q
	}
	return v
}
