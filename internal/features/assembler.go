package features

import (
	"fmt"
	"time"

	"github.com/smaliarov/post-recommender/internal/models"
)

// Assembler builds feature vectors against a fixed schema.
type Assembler struct {
	schema Schema
}

// NewAssembler creates an assembler for the given schema.
func NewAssembler(schema Schema) *Assembler {
	return &Assembler{schema: schema}
}

// Schema returns the schema vectors are assembled against.
func (a *Assembler) Schema() Schema {
	return a.schema
}

// TimeFeatures captures the request-time features shared by every
// candidate in one request. Weekday is Monday-based (0..6), matching
// the training frames.
type TimeFeatures struct {
	Month   int
	Day     int
	Weekday int
	Hour    int
}

// TimeFeaturesAt derives request-time features from a clock reading.
func TimeFeaturesAt(at time.Time) TimeFeatures {
	return TimeFeatures{
		Month:   int(at.Month()),
		Day:     at.Day(),
		Weekday: (int(at.Weekday()) + 6) % 7,
		Hour:    at.Hour(),
	}
}

// Assemble joins one user record and one candidate record into a
// schema-shaped vector. Returns ErrSchemaMismatch when a required
// attribute is absent.
func (a *Assembler) Assemble(user *models.User, post *models.Post, tf TimeFeatures) (Vector, error) {
	numeric := map[string]float64{
		FeatureGender:                 float64(user.Gender),
		FeatureAge:                    float64(user.Age),
		FeatureCohort:                 float64(user.Cohort),
		FeatureUniquePostInteractions: user.UniquePostInteractions,
		FeaturePostsLiked:             user.PostsLiked,
		FeatureTotalViews:             user.TotalViews,
		FeaturePostsLikedShare:        user.PostsLikedShare,
		FeaturePostLength:             float64(post.Length),
		FeatureUniqueUserInteractions: post.Stats.UniqueUserInteractions,
		FeatureUserLikes:              post.Stats.UserLikes,
		FeatureTotalPostViews:         post.Stats.TotalPostViews,
		FeaturePostLikability:         post.Stats.Likability,
		FeatureMonth:                  float64(tf.Month),
		FeatureDay:                    float64(tf.Day),
		FeatureWeekday:                float64(tf.Weekday),
		FeatureHour:                   float64(tf.Hour),
	}

	categorical := map[string]string{
		FeatureCountry: user.Country,
		FeatureCity:    user.City,
		FeatureOS:      user.OS,
		FeatureSource:  user.Source,
		FeatureTopic:   post.Topic,
	}

	v := Vector{
		Numeric:     make(map[string]float64, len(a.schema.Numeric)),
		Categorical: make(map[string]string, len(a.schema.Categorical)),
	}

	for _, name := range a.schema.Numeric {
		value, ok := numeric[name]
		if !ok {
			return Vector{}, fmt.Errorf("%w: numeric feature %q is not produced by this service version", ErrSchemaMismatch, name)
		}
		v.Numeric[name] = value
	}

	for _, name := range a.schema.Categorical {
		value, ok := categorical[name]
		if !ok {
			return Vector{}, fmt.Errorf("%w: categorical feature %q is not produced by this service version", ErrSchemaMismatch, name)
		}
		if value == "" {
			return Vector{}, fmt.Errorf("%w: categorical feature %q is empty for user_id=%d post_id=%d", ErrSchemaMismatch, name, user.ID, post.ID)
		}
		v.Categorical[name] = value
	}

	return v, nil
}

// AssembleBatch assembles one vector per candidate with shared
// request-time features.
func (a *Assembler) AssembleBatch(user *models.User, posts []models.Post, at time.Time) ([]Vector, error) {
	tf := TimeFeaturesAt(at)
	vectors := make([]Vector, 0, len(posts))
	for i := range posts {
		v, err := a.Assemble(user, &posts[i], tf)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
