package database

import (
	"context"

	"github.com/smaliarov/post-recommender/internal/models"
)

// UserFeatureReader defines the interface for user feature lookups
// This interface enables better testability by allowing mock implementations
type UserFeatureReader interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

// CatalogLoader defines the interface for candidate catalog loading
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]models.Post, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserFeatureReader = (*UserFeatureRepository)(nil)
	_ CatalogLoader     = (*PostRepository)(nil)
)
