// Package ranking orders scored candidates and truncates to the
// requested count.
package ranking

import (
	"fmt"
	"sort"

	"github.com/smaliarov/post-recommender/internal/models"
)

// ScoredPost pairs a candidate with its relevance score.
type ScoredPost struct {
	Post  models.Post
	Score float64
}

// TopN sorts candidates by descending score, breaking ties by ascending
// post id so output order is fully deterministic, and returns the first
// limit posts. When limit exceeds the number of candidates, all
// candidates are returned.
func TopN(posts []models.Post, scores []float64, limit int) ([]ScoredPost, error) {
	if len(posts) != len(scores) {
		return nil, fmt.Errorf("ranking: %d posts with %d scores", len(posts), len(scores))
	}
	if limit < 1 {
		return nil, fmt.Errorf("ranking: limit must be positive, got %d", limit)
	}

	ranked := make([]ScoredPost, len(posts))
	for i := range posts {
		ranked[i] = ScoredPost{Post: posts[i], Score: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Post.ID < ranked[j].Post.ID
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
