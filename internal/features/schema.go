// Package features assembles model-ready feature vectors from user and
// candidate attributes. Assembly is pure: no I/O, deterministic for a
// fixed request time.
package features

import "errors"

// ErrSchemaMismatch indicates an attribute the schema requires was
// absent from the input records. It marks a contract violation between
// the feature store and this service version, not a user error.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Feature names shared by the user record, the candidate record, and
// the request clock. The offline training pipeline produces frames
// with exactly these columns; the names here must stay in sync with
// the model artifacts.
const (
	FeatureGender                 = "gender"
	FeatureAge                    = "age"
	FeatureCountry                = "country"
	FeatureCity                   = "city"
	FeatureCohort                 = "exp_group"
	FeatureOS                     = "os"
	FeatureSource                 = "source"
	FeatureUniquePostInteractions = "unique_post_interactions"
	FeaturePostsLiked             = "posts_liked"
	FeatureTotalViews             = "total_views"
	FeaturePostsLikedShare        = "posts_liked_share"
	FeatureTopic                  = "topic"
	FeaturePostLength             = "post_length"
	FeatureUniqueUserInteractions = "unique_user_interactions"
	FeatureUserLikes              = "user_likes"
	FeatureTotalPostViews         = "total_post_views"
	FeaturePostLikability         = "post_likability"
	FeatureMonth                  = "month"
	FeatureDay                    = "day"
	FeatureWeekday                = "weekday"
	FeatureHour                   = "hour"
)

// Schema is the fixed shape of an assembled feature vector.
type Schema struct {
	Numeric     []string
	Categorical []string
}

// DefaultSchema is the 21-feature shape both production models are
// trained on.
func DefaultSchema() Schema {
	return Schema{
		Numeric: []string{
			FeatureGender,
			FeatureAge,
			FeatureCohort,
			FeatureUniquePostInteractions,
			FeaturePostsLiked,
			FeatureTotalViews,
			FeaturePostsLikedShare,
			FeaturePostLength,
			FeatureUniqueUserInteractions,
			FeatureUserLikes,
			FeatureTotalPostViews,
			FeaturePostLikability,
			FeatureMonth,
			FeatureDay,
			FeatureWeekday,
			FeatureHour,
		},
		Categorical: []string{
			FeatureCountry,
			FeatureCity,
			FeatureOS,
			FeatureSource,
			FeatureTopic,
		},
	}
}

// Size returns the total number of features in the schema.
func (s Schema) Size() int {
	return len(s.Numeric) + len(s.Categorical)
}

// Vector is one assembled (user, candidate) feature vector. It is
// ephemeral: built per request, handed to the scoring engine, and
// discarded. Never persisted.
type Vector struct {
	Numeric     map[string]float64
	Categorical map[string]string
}
