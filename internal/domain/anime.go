package domain

// Anime is one catalog row. The catalog is rebuilt wholesale on startup;
// rows are never mutated after load.
type Anime struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	EnglishName string   `json:"english_name"`
	OtherName   string   `json:"other_name"`
	Genres      []string `json:"genres"`
	Synopsis    string   `json:"synopsis"`
	Image       string   `json:"image"`
	// Score is the community popularity score, roughly [-1, 10].
	// -1 means the title has never been scored.
	Score float64 `json:"score"`
}

// Rating is one (user, anime, rating) triple from the ratings load.
type Rating struct {
	UserID  int64
	AnimeID int64
	Score   float64
}
