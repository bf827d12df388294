package habit

import (
	"strings"

	"github.com/dukerupert/habitloop/internal/model"
)

// SuggestCategory returns the category that best fits a habit name.
// It performs case-insensitive matching: exact match first, then substring match.
// Falls back to personal if no match is found.
func SuggestCategory(name string) model.Category {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.CategoryPersonal
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Ordered longer/more-specific first
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return model.CategoryPersonal
}

var exactMatch = map[string]model.Category{
	// Study
	"study":      model.CategoryStudy,
	"read":       model.CategoryStudy,
	"reading":    model.CategoryStudy,
	"homework":   model.CategoryStudy,
	"flashcards": model.CategoryStudy,
	"revise":     model.CategoryStudy,
	"revision":   model.CategoryStudy,
	"lecture":    model.CategoryStudy,
	"pomodoro":   model.CategoryStudy,

	// Health
	"run":        model.CategoryHealth,
	"walk":       model.CategoryHealth,
	"gym":        model.CategoryHealth,
	"yoga":       model.CategoryHealth,
	"stretch":    model.CategoryHealth,
	"sleep":      model.CategoryHealth,
	"meditate":   model.CategoryHealth,
	"meditation": model.CategoryHealth,
	"hydrate":    model.CategoryHealth,
	"vitamins":   model.CategoryHealth,

	// Social
	"call mom":   model.CategorySocial,
	"call dad":   model.CategorySocial,
	"volunteer":  model.CategorySocial,
	"networking": model.CategorySocial,

	// Personal
	"journal":   model.CategoryPersonal,
	"budget":    model.CategoryPersonal,
	"tidy room": model.CategoryPersonal,
}

type substringEntry struct {
	keyword  string
	category model.Category
}

var substringMatches = []substringEntry{
	// Longer phrases first
	{"practice problems", model.CategoryStudy},
	{"past paper", model.CategoryStudy},
	{"drink water", model.CategoryHealth},
	{"screen time", model.CategoryHealth},
	{"study group", model.CategorySocial},
	{"text a friend", model.CategorySocial},

	// Study
	{"study", model.CategoryStudy},
	{"read", model.CategoryStudy},
	{"review", model.CategoryStudy},
	{"revis", model.CategoryStudy},
	{"exam", model.CategoryStudy},
	{"lecture", model.CategoryStudy},
	{"notes", model.CategoryStudy},
	{"homework", model.CategoryStudy},
	{"assignment", model.CategoryStudy},
	{"learn", model.CategoryStudy},
	{"course", model.CategoryStudy},
	{"language", model.CategoryStudy},

	// Health
	{"exercise", model.CategoryHealth},
	{"workout", model.CategoryHealth},
	{"run", model.CategoryHealth},
	{"walk", model.CategoryHealth},
	{"gym", model.CategoryHealth},
	{"yoga", model.CategoryHealth},
	{"stretch", model.CategoryHealth},
	{"sleep", model.CategoryHealth},
	{"water", model.CategoryHealth},
	{"meditat", model.CategoryHealth},
	{"breath", model.CategoryHealth},
	{"vegetable", model.CategoryHealth},
	{"steps", model.CategoryHealth},

	// Social
	{"friend", model.CategorySocial},
	{"family", model.CategorySocial},
	{"call", model.CategorySocial},
	{"visit", model.CategorySocial},
	{"club", model.CategorySocial},
	{"volunteer", model.CategorySocial},
	{"date night", model.CategorySocial},
}
