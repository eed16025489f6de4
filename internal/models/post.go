package models

// Post is a content candidate eligible for ranking. Candidates are
// loaded once at startup and cached in memory for batch scoring.
type Post struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Topic  string `json:"topic"`
	Length int    `json:"post_length"`

	Stats PostStats `json:"stats"`
}

// PostStats aggregates historical interactions for one post. Posts with
// no recorded interactions carry zero values.
type PostStats struct {
	UniqueUserInteractions float64 `json:"unique_user_interactions"`
	UserLikes              float64 `json:"user_likes"`
	TotalPostViews         float64 `json:"total_post_views"`
	Likability             float64 `json:"post_likability"`
}
