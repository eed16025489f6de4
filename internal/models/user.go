package models

// User holds the per-user feature record served by the offline feature
// pipeline. All fields are read-only at request time.
type User struct {
	ID       int64  `json:"id"`
	Gender   int    `json:"gender"`
	Age      int    `json:"age"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Cohort   int    `json:"exp_group"`
	OS       string `json:"os"`
	Source   string `json:"source"`

	UniquePostInteractions float64 `json:"unique_post_interactions"`
	PostsLiked             float64 `json:"posts_liked"`
	TotalViews             float64 `json:"total_views"`
	PostsLikedShare        float64 `json:"posts_liked_share"`
}
