package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStep is returned for a transition the current step does not allow.
	ErrInvalidStep = errors.New("onboarding: invalid step transition")
	// ErrAvailabilityPending is returned when store info is submitted before
	// the slug availability check has resolved. A check has been started.
	ErrAvailabilityPending = errors.New("onboarding: slug availability not resolved")
	// ErrDraftVersion is returned for a persisted draft with an unknown schema version.
	ErrDraftVersion = errors.New("onboarding: unrecognized draft version")
)

// ValidationError is a form error attached to one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("onboarding: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func wrongStep(op string, want, got int) error {
	return fmt.Errorf("onboarding.Wizard.%s: requires step %d, at step %d: %w", op, want, got, ErrInvalidStep)
}

// Form messages shown next to the offending input.
const (
	msgNameRequired    = "اسم المتجر مطلوب"
	msgSlugRequired    = "رابط المتجر مطلوب"
	msgSlugInvalid     = "رابط المتجر غير صحيح. استخدم أحرف إنجليزية وأرقام وشرطات فقط"
	msgSlugTaken       = "هذا الرابط مستخدم بالفعل"
	msgSlugCheckFailed = "حدث خطأ أثناء التحقق من الرابط"
	msgSlugLocked      = "لا يمكن تغيير رابط المتجر بعد إنشائه"
	msgAnswerRequired  = "يرجى اختيار إجابة"
	msgUnknownOption   = "خيار غير معروف"
	msgEmptyMessage    = "الرسالة فارغة"
)
