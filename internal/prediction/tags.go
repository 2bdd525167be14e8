package prediction

import "github.com/mrcode/glucopredict/internal/models"

// TagCode identifies a composition finding
type TagCode string

const (
	TagHighCarbLoad  TagCode = "high-carbohydrate-load"
	TagLowFiber      TagCode = "low-fiber"
	TagHighFiber     TagCode = "high-fiber"
	TagHighProtein   TagCode = "high-protein"
	TagLowProtein    TagCode = "low-protein"
	TagGeneralAdvice TagCode = "general-guidance"
)

// Tag is a qualitative, advisory finding about a meal
type Tag struct {
	Code    TagCode `json:"code"`
	Message string  `json:"message"`
}

var tagMessages = map[TagCode]string{
	TagHighCarbLoad:  "High carbohydrate load: eating vegetables first matters most for this meal",
	TagLowFiber:      "Low fiber: add a salad or vegetables to slow absorption",
	TagHighFiber:     "High fiber: this meal will absorb gradually",
	TagHighProtein:   "High protein: eating protein first also works well",
	TagLowProtein:    "Low protein: a protein source would help blunt the peak",
	TagGeneralAdvice: "Eat vegetables, then protein, then carbohydrates",
}

func newTag(code TagCode) Tag {
	return Tag{Code: code, Message: tagMessages[code]}
}

// OrderTags returns the rule-based findings for a meal. General guidance is always last.
func OrderTags(macros models.Macronutrients) []Tag {
	var tags []Tag

	if macros.Carbs > 45 {
		tags = append(tags, newTag(TagHighCarbLoad))
	}

	switch fiber := macros.FiberRatio(); {
	case fiber < 0.05:
		tags = append(tags, newTag(TagLowFiber))
	case fiber > 0.15:
		tags = append(tags, newTag(TagHighFiber))
	}

	switch {
	case macros.Protein > 25:
		tags = append(tags, newTag(TagHighProtein))
	case macros.Protein < 10:
		tags = append(tags, newTag(TagLowProtein))
	}

	return append(tags, newTag(TagGeneralAdvice))
}
