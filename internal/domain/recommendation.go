package domain

// RankedRecommendation is one scored output row. Score is unbounded and
// only meaningful for ordering.
type RankedRecommendation struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	EnglishName string   `json:"english_name"`
	OtherName   string   `json:"other_name"`
	Synopsis    string   `json:"synopsis"`
	Genres      []string `json:"genres"`
	Score       float64  `json:"score"`
}

// Suggestion is one "did you mean" candidate returned when an exact
// title lookup misses.
type Suggestion struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// SuggestionSet carries both fallback searches for a failed title lookup.
type SuggestionSet struct {
	Contains []Suggestion `json:"contains"`
	Fuzzy    []Suggestion `json:"fuzzy"`
}
