package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smaliarov/post-recommender/internal/database"
	"github.com/smaliarov/post-recommender/internal/experiment"
	"github.com/smaliarov/post-recommender/internal/features"
	"github.com/smaliarov/post-recommender/internal/models"
	"github.com/smaliarov/post-recommender/internal/scoring"
)

type fakeUserReader struct {
	users map[int64]*models.User
	down  bool
	calls int
}

func (f *fakeUserReader) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	f.calls++
	if f.down {
		return nil, fmt.Errorf("%w: connection refused", database.ErrStorageUnavailable)
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user_id=%d", database.ErrUserNotFound, userID)
	}
	return u, nil
}

func testUser(id int64) *models.User {
	return &models.User{
		ID:                     id,
		Gender:                 1,
		Age:                    30,
		Country:                "Russia",
		City:                   "Moscow",
		Cohort:                 2,
		OS:                     "Android",
		Source:                 "ads",
		UniquePostInteractions: 50,
		PostsLiked:             10,
		TotalViews:             200,
		PostsLikedShare:        0.2,
	}
}

func testCatalog(n int) []models.Post {
	topics := []string{"covid", "tech", "sport", "movie", "business"}
	catalog := make([]models.Post, n)
	for i := range catalog {
		text := fmt.Sprintf("post number %d", i+1)
		catalog[i] = models.Post{
			ID:     int64(i + 1),
			Text:   text,
			Topic:  topics[i%len(topics)],
			Length: len(text),
			Stats: models.PostStats{
				UniqueUserInteractions: float64(100 + i),
				UserLikes:              float64(10 * (i + 1)),
				TotalPostViews:         float64(500 + i),
				Likability:             float64(10*(i+1)) / float64(100+i),
			},
		}
	}
	return catalog
}

// testEngine loads a full-schema logistic artifact for both groups, with
// weights that vary scores across the catalog (likability dominates).
func testEngine(t *testing.T) *scoring.Engine {
	t.Helper()

	schema := features.DefaultSchema()
	numericWeights := make(map[string]float64, len(schema.Numeric))
	for _, name := range schema.Numeric {
		numericWeights[name] = 0
	}
	numericWeights[features.FeaturePostLikability] = 3.0

	artifact, err := json.Marshal(map[string]any{
		"version":         "test",
		"bias":            -0.1,
		"numeric_weights": numericWeights,
		"categorical_weights": map[string]map[string]float64{
			"topic": {"covid": 0.2, "tech": 0.1},
		},
		"schema": map[string][]string{
			"numeric":     schema.Numeric,
			"categorical": schema.Categorical,
		},
	})
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}

	dir := t.TempDir()
	for _, name := range []string{"model_control.json", "model_test.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), artifact, 0o600); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	engine, err := scoring.LoadEngine(dir, []experiment.Group{experiment.GroupControl, experiment.GroupTest})
	if err != nil {
		t.Fatalf("LoadEngine() error = %v", err)
	}
	return engine
}

func newTestService(t *testing.T, users *fakeUserReader, catalogSize int, opts ...Option) *Service {
	t.Helper()

	splitter, err := experiment.NewSplitter("abc", 50)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	clock := func() time.Time {
		return time.Date(2025, time.February, 3, 14, 0, 0, 0, time.UTC)
	}

	return NewService(
		splitter,
		users,
		testCatalog(catalogSize),
		features.NewAssembler(features.DefaultSchema()),
		testEngine(t),
		zap.NewNop(),
		append([]Option{WithClock(clock)}, opts...)...,
	)
}

func TestRecommendReturnsLimitItems(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 20)

	result, err := svc.Recommend(context.Background(), 123, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(result.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want 5", len(result.Posts))
	}
	// User 123 with salt "abc" lands in bucket 60: the test group.
	if result.Group != experiment.GroupTest {
		t.Errorf("Group = %q, want %q", result.Group, experiment.GroupTest)
	}

	seen := make(map[int64]bool)
	for _, p := range result.Posts {
		if seen[p.ID] {
			t.Errorf("post %d returned twice", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestRecommendLimitExceedsCandidates(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 3)

	result, err := svc.Recommend(context.Background(), 123, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(result.Posts) != 3 {
		t.Errorf("len(Posts) = %d, want all 3 candidates", len(result.Posts))
	}
}

func TestRecommendOrderedByScore(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 20)

	// The test artifact weights likability at 3.0, and likability grows
	// with post id in the fixture catalog, so later posts score higher.
	first, err := svc.Recommend(context.Background(), 123, 20)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := svc.Recommend(context.Background(), 123, 20)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for i := range first.Posts {
		if first.Posts[i].ID != second.Posts[i].ID {
			t.Fatalf("order differs between identical runs at %d: %d vs %d",
				i, first.Posts[i].ID, second.Posts[i].ID)
		}
	}
}

func TestRecommendRoundTripsPostFields(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 10)
	catalog := testCatalog(10)
	byID := make(map[int64]models.Post, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	result, err := svc.Recommend(context.Background(), 123, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for _, got := range result.Posts {
		want, ok := byID[got.ID]
		if !ok {
			t.Errorf("post %d not in catalog", got.ID)
			continue
		}
		if got.Text != want.Text || got.Topic != want.Topic {
			t.Errorf("post %d fields altered: got (%q, %q), want (%q, %q)",
				got.ID, got.Text, got.Topic, want.Text, want.Topic)
		}
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{}}
	svc := newTestService(t, users, 10)

	_, err := svc.Recommend(context.Background(), 999999, 5)
	if !errors.Is(err, database.ErrUserNotFound) {
		t.Fatalf("Recommend() error = %v, want ErrUserNotFound", err)
	}
}

func TestRecommendStorageDown(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{down: true}
	svc := newTestService(t, users, 10)

	result, err := svc.Recommend(context.Background(), 123, 5)
	if !errors.Is(err, database.ErrStorageUnavailable) {
		t.Fatalf("Recommend() error = %v, want ErrStorageUnavailable", err)
	}
	if result != nil {
		t.Error("Recommend() returned a partial result alongside an error")
	}
}

func TestRecommendInvalidLimit(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 10)

	for _, limit := range []int{0, -1, -100} {
		if _, err := svc.Recommend(context.Background(), 123, limit); err == nil {
			t.Errorf("Recommend() with limit %d: want error, got nil", limit)
		}
	}
	if users.calls != 0 {
		t.Errorf("storage queried %d times for invalid limits, want 0", users.calls)
	}
}

func TestRecommendGroupStableAcrossCalls(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	svc := newTestService(t, users, 10)

	first, err := svc.Recommend(context.Background(), 123, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		result, err := svc.Recommend(context.Background(), 123, 5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if result.Group != first.Group {
			t.Fatalf("Group changed between calls: %q vs %q", result.Group, first.Group)
		}
	}
}

type fakeCache struct {
	stored map[string]*Result
	broken bool
	gets   int
	sets   int
}

func (f *fakeCache) key(userID int64, limit int) string {
	return fmt.Sprintf("%d:%d", userID, limit)
}

func (f *fakeCache) Get(ctx context.Context, userID int64, limit int) (*Result, error) {
	f.gets++
	if f.broken {
		return nil, errors.New("cache down")
	}
	return f.stored[f.key(userID, limit)], nil
}

func (f *fakeCache) Set(ctx context.Context, userID int64, limit int, result *Result) error {
	f.sets++
	if f.broken {
		return errors.New("cache down")
	}
	if f.stored == nil {
		f.stored = make(map[string]*Result)
	}
	f.stored[f.key(userID, limit)] = result
	return nil
}

func TestRecommendCacheHitSkipsStorage(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	cache := &fakeCache{stored: map[string]*Result{
		"123:5": {Group: experiment.GroupTest, Posts: testCatalog(5)},
	}}
	svc := newTestService(t, users, 10, WithCache(cache))

	result, err := svc.Recommend(context.Background(), 123, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(result.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want the 5 cached posts", len(result.Posts))
	}
	if users.calls != 0 {
		t.Errorf("storage queried %d times on a cache hit, want 0", users.calls)
	}
}

func TestRecommendCacheMissStoresResult(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	cache := &fakeCache{}
	svc := newTestService(t, users, 10, WithCache(cache))

	result, err := svc.Recommend(context.Background(), 123, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("cache.Set called %d times, want 1", cache.sets)
	}
	if got := cache.stored["123:5"]; got == nil || len(got.Posts) != len(result.Posts) {
		t.Error("resolved result was not stored in the cache")
	}
}

func TestRecommendCacheFailureIsSoft(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	cache := &fakeCache{broken: true}
	svc := newTestService(t, users, 10, WithCache(cache))

	result, err := svc.Recommend(context.Background(), 123, 5)
	if err != nil {
		t.Fatalf("Recommend() with broken cache: error = %v", err)
	}
	if len(result.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want 5 despite cache failures", len(result.Posts))
	}
}

func TestRecommendSchemaMismatchSurfaced(t *testing.T) {
	t.Parallel()

	users := &fakeUserReader{users: map[int64]*models.User{123: testUser(123)}}
	users.users[123].Country = ""
	svc := newTestService(t, users, 10)

	_, err := svc.Recommend(context.Background(), 123, 5)
	if !errors.Is(err, features.ErrSchemaMismatch) {
		t.Fatalf("Recommend() error = %v, want ErrSchemaMismatch", err)
	}
}
