package onboarding

// Question is one single-select item of the store questionnaire.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

func (q Question) hasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

//nolint:gochecknoglobals // fixed questionnaire
var questions = []Question{
	{
		ID:      "target_audience",
		Prompt:  "من هو جمهورك المستهدف؟",
		Options: []string{"رجال", "نساء", "أطفال", "جميع الفئات"},
	},
	{
		ID:      "product_type",
		Prompt:  "ما نوع المنتجات التي تبيعها؟",
		Options: []string{"أزياء وملابس", "إلكترونيات", "منتجات منزلية", "أطعمة ومشروبات", "أخرى"},
	},
	{
		ID:     "price_range",
		Prompt: "ما نطاق الأسعار؟",
		Options: []string{
			"اقتصادي (أقل من 100 ر.س)",
			"متوسط (100-500 ر.س)",
			"راقي (500-2000 ر.س)",
			"فاخر (أكثر من 2000 ر.س)",
		},
	},
	{
		ID:      "style",
		Prompt:  "ما هو أسلوب متجرك؟",
		Options: []string{"عصري ومبتكر", "كلاسيكي وأنيق", "شبابي وحيوي", "فاخر ومميز"},
	},
}

// Questions returns the questionnaire in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
