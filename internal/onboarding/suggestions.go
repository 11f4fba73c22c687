package onboarding

import (
	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/theme"
)

// FallbackSuggestions is offered when the backend has no suggestions for a store.
func FallbackSuggestions() domain.Suggestions {
	s := domain.Suggestions{
		Logos: []string{
			"https://via.placeholder.com/200x200/2563EB/FFFFFF?text=Logo+1",
			"https://via.placeholder.com/200x200/7C3AED/FFFFFF?text=Logo+2",
			"https://via.placeholder.com/200x200/059669/FFFFFF?text=Logo+3",
		},
		Gradients: []domain.Gradient{
			{Name: "أزرق كلاسيكي", Colors: []string{"#2563EB", "#1D4ED8"}},
			{Name: "بنفسجي عصري", Colors: []string{"#7C3AED", "#9333EA"}},
			{Name: "أخضر طبيعي", Colors: []string{"#059669", "#047857"}},
		},
	}
	for _, t := range theme.All() {
		s.Themes = append(s.Themes, domain.ThemePreview{ID: t.ID, Name: t.Name, Preview: t.ID + "-preview.jpg"})
	}
	return s
}
