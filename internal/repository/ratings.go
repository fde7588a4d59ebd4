package repository

import (
	"context"
	"fmt"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// LoadRatings reads the full (user, anime, rating) relation for the
// collaborative index build.
func (r *Repository) LoadRatings(ctx context.Context) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, anime_id, rating FROM ratings`,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.UserID, &rt.AnimeID, &rt.Score); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over ratings: %w", err)
	}
	return ratings, nil
}
