package onboarding

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeVersion is the schema version written by this build.
const EnvelopeVersion = 1

// Envelope is the persisted form of a wizard.
type Envelope struct {
	Version   int       `json:"version"`
	Draft     Draft     `json:"draft"`
	StepIndex int       `json:"step_index"`
	SavedAt   time.Time `json:"saved_at"`
	Completed bool      `json:"completed,omitempty"`
	UI        UIState   `json:"ui"`
}

// Snapshot captures w for persistence.
func (w *Wizard) Snapshot(now time.Time) Envelope {
	return Envelope{
		Version:   EnvelopeVersion,
		Draft:     w.Draft(),
		StepIndex: w.step,
		SavedAt:   now.UTC(),
		Completed: w.completed,
		UI:        w.UI(),
	}
}

// Restore rebuilds a wizard from env. Envelopes of another version, or with
// a step outside the wizard, are rejected with ErrDraftVersion.
func Restore(env Envelope) (*Wizard, error) {
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("onboarding.Restore: version %d: %w", env.Version, ErrDraftVersion)
	}
	if env.StepIndex < FirstStep || env.StepIndex > LastStep {
		return nil, fmt.Errorf("onboarding.Restore: step %d out of range: %w", env.StepIndex, ErrDraftVersion)
	}
	if env.UI.QuestionIndex < 0 || env.UI.QuestionIndex >= len(questions) {
		return nil, fmt.Errorf("onboarding.Restore: question %d out of range: %w", env.UI.QuestionIndex, ErrDraftVersion)
	}

	ui := env.UI
	if ui.Availability == "" {
		ui.Availability = AvailabilityUnknown
	}

	return &Wizard{
		step:      env.StepIndex,
		draft:     env.Draft.clone(),
		ui:        ui,
		completed: env.Completed,
	}, nil
}

// EncodeEnvelope serializes env.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("onboarding.EncodeEnvelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses data and restores the wizard it holds.
func DecodeEnvelope(data []byte) (*Wizard, Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, Envelope{}, fmt.Errorf("onboarding.DecodeEnvelope: %w: %w", ErrDraftVersion, err)
	}
	w, err := Restore(env)
	if err != nil {
		return nil, env, err
	}
	return w, env, nil
}
