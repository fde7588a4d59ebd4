// Package seeds fills an empty dev database with a small catalog and
// synthetic ratings. Run MIN_RATINGS well below the production floor when
// using seed data, or the collaborative index will come up empty.
package seeds

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
)

type seedAnime struct {
	id      int64
	name    string
	english string
	genres  string
	score   float64
}

var animes = []seedAnime{
	{1, "Cowboy Bebop", "Cowboy Bebop", "Action, Award Winning, Sci-Fi", 8.75},
	{5, "Cowboy Bebop: Tengoku no Tobira", "Cowboy Bebop: The Movie", "Action, Sci-Fi", 8.38},
	{20, "Naruto", "Naruto", "Action, Adventure, Fantasy", 7.99},
	{21, "One Piece", "One Piece", "Action, Adventure, Fantasy", 8.71},
	{30, "Shinseiki Evangelion", "Neon Genesis Evangelion", "Avant Garde, Award Winning, Drama, Sci-Fi", 8.35},
	{199, "Sen to Chihiro no Kamikakushi", "Spirited Away", "Adventure, Award Winning, Supernatural", 8.77},
	{431, "Howl no Ugoku Shiro", "Howl's Moving Castle", "Adventure, Drama, Fantasy, Romance", 8.66},
	{820, "Ginga Eiyuu Densetsu", "Legend of the Galactic Heroes", "Drama, Sci-Fi", 9.02},
	{1535, "Death Note", "Death Note", "Supernatural, Suspense", 8.62},
	{2904, "Code Geass: Hangyaku no Lelouch R2", "Code Geass R2", "Action, Drama, Sci-Fi", 8.91},
	{4181, "Clannad: After Story", "Clannad: After Story", "Drama, Romance, Supernatural", 8.93},
	{5114, "Hagane no Renkinjutsushi: Fullmetal Alchemist", "Fullmetal Alchemist: Brotherhood", "Action, Adventure, Drama, Fantasy", 9.09},
	{9253, "Steins;Gate", "Steins;Gate", "Drama, Sci-Fi, Suspense", 9.07},
	{11061, "Hunter x Hunter (2011)", "Hunter x Hunter", "Action, Adventure, Fantasy", 9.03},
	{16498, "Shingeki no Kyojin", "Attack on Titan", "Action, Award Winning, Drama, Suspense", 8.55},
	{19815, "No Game No Life", "No Game No Life", "Comedy, Fantasy", 8.05},
	{28977, "Gintama°", "Gintama Season 4", "Action, Comedy, Sci-Fi", 9.05},
	{32281, "Kimi no Na wa.", "Your Name.", "Award Winning, Drama, Supernatural", 8.83},
	{38000, "Kimetsu no Yaiba", "Demon Slayer", "Action, Award Winning, Fantasy", 8.43},
	{52991, "Sousou no Frieren", "Frieren: Beyond Journey's End", "Adventure, Drama, Fantasy", 9.29},
}

func Setup(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	rng := rand.New(rand.NewSource(42))

	// Truncate existing data before insert
	log.Info("[seed] truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE ratings, relations, genre_counts, animes CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Info("[seed] inserting animes")
	if err := seedAnimes(ctx, pool); err != nil {
		return fmt.Errorf("seed animes: %w", err)
	}

	log.Info("[seed] inserting ratings")
	if err := seedRatings(ctx, pool, rng, 120); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}

	log.Info("[seed] inserting genre counts")
	if err := seedGenreCounts(ctx, pool); err != nil {
		return fmt.Errorf("seed genre counts: %w", err)
	}

	log.Info("[seed] seeding complete")
	return nil
}

func seedAnimes(ctx context.Context, pool *pgxpool.Pool) error {
	rows := []string{}
	args := []any{}

	for i, a := range animes {
		base := i * 5
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, a.id, a.name, a.english, a.genres, a.score)
	}

	sql := fmt.Sprintf(
		`INSERT INTO animes (anime_id, name, english_name, genres, score) VALUES %s`,
		strings.Join(rows, ", "),
	)
	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert animes: %w", err)
	}
	return nil
}

func seedRatings(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, users int) error {
	rows := []string{}
	args := []any{}
	n := 0

	for user := 1; user <= users; user++ {
		// each synthetic user has a scale bias and rates most of the catalog
		bias := rng.Float64()*3 - 1.5
		for _, a := range animes {
			if rng.Float64() < 0.25 {
				continue
			}
			rating := a.score + bias + rng.Float64()*2 - 1
			if rating < 1 {
				rating = 1
			}
			if rating > 10 {
				rating = 10
			}

			base := n * 3
			rows = append(rows, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
			args = append(args, int64(user), a.id, float64(int(rating*2))/2)
			n++
		}
	}

	sql := fmt.Sprintf(
		`INSERT INTO ratings (user_id, anime_id, rating) VALUES %s`,
		strings.Join(rows, ", "),
	)
	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ratings: %w", err)
	}
	return nil
}

func seedGenreCounts(ctx context.Context, pool *pgxpool.Pool) error {
	counts := map[string]int{}
	for _, a := range animes {
		for _, g := range catalog.SplitGenres(a.genres) {
			counts[g]++
		}
	}

	rows := []string{}
	args := []any{}
	i := 0
	for g, c := range counts {
		rows = append(rows, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, g, c)
		i++
	}

	sql := fmt.Sprintf(
		`INSERT INTO genre_counts (genre, count) VALUES %s`,
		strings.Join(rows, ", "),
	)
	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert genre counts: %w", err)
	}
	return nil
}
