package domain

const StatusCompleted = "completed"

// UserListEntry is one title from a user's list-tracking history.
// Score is the user's 1-10 rating, 0 when unrated. Genres are already
// normalized into index tokens.
type UserListEntry struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
	Score  int      `json:"score"`
	Status string   `json:"status"`
}
