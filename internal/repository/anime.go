package repository

import (
	"context"
	"fmt"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// LoadCatalog reads every anime row in id order. The genres column is a
// comma-separated display string and is tokenized on the way in.
func (r *Repository) LoadCatalog(ctx context.Context) ([]domain.Anime, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT anime_id, name, english_name, other_name, genres, synopsis, image, score
		 FROM animes
		 ORDER BY anime_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query animes: %w", err)
	}
	defer rows.Close()

	var animes []domain.Anime
	for rows.Next() {
		var a domain.Anime
		var genres string
		err := rows.Scan(&a.ID, &a.Name, &a.EnglishName, &a.OtherName, &genres, &a.Synopsis, &a.Image, &a.Score)
		if err != nil {
			return nil, fmt.Errorf("scan anime: %w", err)
		}
		a.Genres = catalog.SplitGenres(genres)
		animes = append(animes, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over animes: %w", err)
	}
	return animes, nil
}

// AllGenres lists the known genre tokens, for the frontend.
func (r *Repository) AllGenres(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT genre FROM genre_counts ORDER BY genre`)
	if err != nil {
		return nil, fmt.Errorf("query genre counts: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over genres: %w", err)
	}
	return genres, nil
}
