// Package recommend composes the recommendation pipeline: experiment
// assignment, feature loading, vector assembly, scoring, and ranking.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smaliarov/post-recommender/internal/database"
	"github.com/smaliarov/post-recommender/internal/experiment"
	"github.com/smaliarov/post-recommender/internal/features"
	"github.com/smaliarov/post-recommender/internal/models"
	"github.com/smaliarov/post-recommender/internal/ranking"
	"github.com/smaliarov/post-recommender/internal/scoring"
)

// Result is one resolved recommendation response: the user's experiment
// group and the ranked posts.
type Result struct {
	Group experiment.Group `json:"exp_group"`
	Posts []models.Post    `json:"posts"`
}

// ResultCache stores resolved results keyed by (user, limit).
// Implemented by Cache; an interface so tests can observe cache
// traffic without redis.
type ResultCache interface {
	Get(ctx context.Context, userID int64, limit int) (*Result, error)
	Set(ctx context.Context, userID int64, limit int, result *Result) error
}

// Service orchestrates the per-request pipeline. All dependencies are
// immutable after construction and safe for concurrent use; no request
// mutates shared state.
type Service struct {
	splitter  *experiment.Splitter
	users     database.UserFeatureReader
	catalog   []models.Post
	assembler *features.Assembler
	engine    *scoring.Engine
	cache     ResultCache
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional service behavior.
type Option func(*Service)

// WithCache enables the response cache.
func WithCache(cache ResultCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithClock overrides the request clock. Used by tests to pin the
// time-of-request features.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the recommendation service over a pre-loaded
// candidate catalog.
func NewService(
	splitter *experiment.Splitter,
	users database.UserFeatureReader,
	catalog []models.Post,
	assembler *features.Assembler,
	engine *scoring.Engine,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		splitter:  splitter,
		users:     users,
		catalog:   catalog,
		assembler: assembler,
		engine:    engine,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CatalogSize returns the number of candidates held in memory.
func (s *Service) CatalogSize() int {
	return len(s.catalog)
}

// Recommend resolves top-limit recommendations for a user. The
// operation is all-or-nothing: any pipeline failure aborts the request
// and no partial list is returned.
func (s *Service) Recommend(ctx context.Context, userID int64, limit int) (*Result, error) {
	if limit < 1 {
		return nil, fmt.Errorf("recommend: limit must be positive, got %d", limit)
	}

	start := s.now()
	group := s.splitter.Assign(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, userID, limit); err != nil {
			s.logger.Debug("recommendation_cache_read_failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		} else if cached != nil {
			s.logger.Debug("recommendation_cache_hit",
				zap.Int64("user_id", userID),
				zap.Int("limit", limit),
			)
			return cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logError(userID, group, "load_user_features", err)
		return nil, err
	}

	vectors, err := s.assembler.AssembleBatch(user, s.catalog, start)
	if err != nil {
		s.logError(userID, group, "assemble_vectors", err)
		return nil, err
	}

	scores, err := s.engine.Score(group, vectors)
	if err != nil {
		s.logError(userID, group, "score_candidates", err)
		return nil, err
	}

	ranked, err := ranking.TopN(s.catalog, scores, limit)
	if err != nil {
		s.logError(userID, group, "rank_candidates", err)
		return nil, err
	}

	posts := make([]models.Post, len(ranked))
	for i, r := range ranked {
		posts[i] = r.Post
	}
	result := &Result{Group: group, Posts: posts}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, limit, result); err != nil {
			s.logger.Debug("recommendation_cache_write_failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("recommendations_resolved",
		zap.Int64("user_id", userID),
		zap.String("exp_group", string(group)),
		zap.Int("limit", limit),
		zap.Int("returned", len(posts)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return result, nil
}

func (s *Service) logError(userID int64, group experiment.Group, step string, err error) {
	s.logger.Error("recommendation_pipeline_failed",
		zap.Int64("user_id", userID),
		zap.String("exp_group", string(group)),
		zap.String("step", step),
		zap.Error(err),
	)
}
