package catalog

import (
	"strings"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// Catalog is the immutable in-memory anime table. It keeps load order,
// which downstream search and seed selection depend on.
type Catalog struct {
	list []domain.Anime
	byID map[int64]int
}

func New(animes []domain.Anime) *Catalog {
	c := &Catalog{
		list: animes,
		byID: make(map[int64]int, len(animes)),
	}
	for i, a := range animes {
		c.byID[a.ID] = i
	}
	return c
}

func (c *Catalog) Contains(id int64) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) Get(id int64) (domain.Anime, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Anime{}, false
	}
	return c.list[i], true
}

// All returns the backing slice in load order. Callers must not modify it.
func (c *Catalog) All() []domain.Anime {
	return c.list
}

func (c *Catalog) Len() int {
	return len(c.list)
}

// NormalizeGenre maps a display genre name to its index token: punctuation
// is dropped and hyphens/spaces become underscores, so "Sci-Fi" and
// "Award Winning" each end up as a single token.
func NormalizeGenre(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, ",", "")
	name = strings.ReplaceAll(name, "(", "")
	name = strings.ReplaceAll(name, ")", "")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// SplitGenres tokenizes a comma-separated genre column value.
func SplitGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := NormalizeGenre(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
