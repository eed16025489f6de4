package database

import (
	"context"
	"fmt"

	"github.com/smaliarov/post-recommender/internal/models"
)

// PostRepository reads the content candidate catalog
type PostRepository struct {
	db        *DB
	batchSize int
}

// NewPostRepository creates a new post repository. batchSize bounds the
// number of rows fetched per query while loading the catalog.
func NewPostRepository(db *DB, batchSize int) *PostRepository {
	return &PostRepository{db: db, batchSize: batchSize}
}

// LoadCatalog loads all candidate posts with their engagement statistics.
// Posts and interaction aggregates are read in bounded batches (keyset
// pagination on post id) so a large catalog never materializes in a
// single result set.
func (r *PostRepository) LoadCatalog(ctx context.Context) ([]models.Post, error) {
	posts, err := r.loadPosts(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := r.loadStats(ctx)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		if s, ok := stats[posts[i].ID]; ok {
			posts[i].Stats = s
		}
	}

	return posts, nil
}

func (r *PostRepository) loadPosts(ctx context.Context) ([]models.Post, error) {
	query := `
		SELECT post_id, text, topic
		FROM post_text_df
		WHERE post_id > $1
		ORDER BY post_id
		LIMIT $2
	`

	var posts []models.Post
	lastID := int64(0)
	for {
		rows, err := r.db.QueryContext(ctx, query, lastID, r.batchSize)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load posts: %v", ErrStorageUnavailable, err)
		}

		n := 0
		for rows.Next() {
			var p models.Post
			if err := rows.Scan(&p.ID, &p.Text, &p.Topic); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("%w: failed to scan post: %v", ErrStorageUnavailable, err)
			}
			p.Length = len(p.Text)
			posts = append(posts, p)
			lastID = p.ID
			n++
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: failed to iterate posts: %v", ErrStorageUnavailable, err)
		}
		_ = rows.Close()

		if n < r.batchSize {
			return posts, nil
		}
	}
}

// loadStats aggregates the interaction log per post: distinct interacting
// users, distinct likers, and view events. Likability is the like share
// among interacting users; posts absent from the log keep zero stats.
func (r *PostRepository) loadStats(ctx context.Context) (map[int64]models.PostStats, error) {
	query := `
		SELECT post_id,
		       COUNT(DISTINCT(user_id)) AS unique_user_interactions,
		       COUNT(DISTINCT(user_id)) FILTER (WHERE action = 'like') AS user_likes,
		       COUNT(action) FILTER (WHERE action = 'view') AS total_post_views
		FROM feed_data
		WHERE post_id > $1
		GROUP BY post_id
		ORDER BY post_id
		LIMIT $2
	`

	stats := make(map[int64]models.PostStats)
	lastID := int64(0)
	for {
		rows, err := r.db.QueryContext(ctx, query, lastID, r.batchSize)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load post stats: %v", ErrStorageUnavailable, err)
		}

		n := 0
		for rows.Next() {
			var id int64
			var s models.PostStats
			if err := rows.Scan(&id, &s.UniqueUserInteractions, &s.UserLikes, &s.TotalPostViews); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("%w: failed to scan post stats: %v", ErrStorageUnavailable, err)
			}
			if s.UniqueUserInteractions > 0 {
				s.Likability = s.UserLikes / s.UniqueUserInteractions
			}
			stats[id] = s
			lastID = id
			n++
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: failed to iterate post stats: %v", ErrStorageUnavailable, err)
		}
		_ = rows.Close()

		if n < r.batchSize {
			return stats, nil
		}
	}
}

// TopicCounts returns the number of candidate posts per topic.
func (r *PostRepository) TopicCounts(ctx context.Context) (map[string]int, error) {
	query := `SELECT topic, COUNT(*) FROM post_text_df GROUP BY topic`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count topics: %v", ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var topic string
		var n int
		if err := rows.Scan(&topic, &n); err != nil {
			return nil, fmt.Errorf("%w: failed to scan topic count: %v", ErrStorageUnavailable, err)
		}
		counts[topic] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate topic counts: %v", ErrStorageUnavailable, err)
	}

	return counts, nil
}
