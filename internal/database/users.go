package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smaliarov/post-recommender/internal/models"
)

// UserFeatureRepository reads per-user feature records
type UserFeatureRepository struct {
	db *DB
}

// NewUserFeatureRepository creates a new user feature repository
func NewUserFeatureRepository(db *DB) *UserFeatureRepository {
	return &UserFeatureRepository{db: db}
}

// GetByID retrieves the feature record for one user
func (r *UserFeatureRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, gender, age, country, city, exp_group, os, source,
		       unique_post_interactions, posts_liked, total_views, posts_liked_share
		FROM recommendation_service_features
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Gender,
		&user.Age,
		&user.Country,
		&user.City,
		&user.Cohort,
		&user.OS,
		&user.Source,
		&user.UniquePostInteractions,
		&user.PostsLiked,
		&user.TotalViews,
		&user.PostsLikedShare,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user_id=%d", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user features: %v", ErrStorageUnavailable, err)
	}

	return user, nil
}
