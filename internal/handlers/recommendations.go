package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/smaliarov/post-recommender/internal/database"
	"github.com/smaliarov/post-recommender/internal/features"
	logpkg "github.com/smaliarov/post-recommender/internal/logger"
	"github.com/smaliarov/post-recommender/internal/recommend"
	"github.com/smaliarov/post-recommender/internal/scoring"
)

// Recommender resolves recommendations for a user. Implemented by
// recommend.Service; a narrow interface keeps handler tests free of the
// full pipeline.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, limit int) (*recommend.Result, error)
}

// RecommendationsHandler handles recommendation requests
type RecommendationsHandler struct {
	service      Recommender
	defaultLimit int
	logger       *zap.Logger
	validate     *validator.Validate
}

// NewRecommendationsHandler creates a new recommendations handler
func NewRecommendationsHandler(service Recommender, defaultLimit int, logger *zap.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{
		service:      service,
		defaultLimit: defaultLimit,
		logger:       logger,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers recommendation routes on the given router
func (h *RecommendationsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/post/recommendations/", h.GetRecommendations).Methods("GET")
}

// recommendationsParams are the validated query parameters.
type recommendationsParams struct {
	ID    int64 `validate:"min=0"`
	Limit int   `validate:"min=1"`
}

// RecommendedPost is one post in the response payload.
type RecommendedPost struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// RecommendationsResponse is the recommendation response payload.
type RecommendationsResponse struct {
	ExpGroup        string            `json:"exp_group"`
	Recommendations []RecommendedPost `json:"recommendations"`
}

// GetRecommendations serves GET /post/recommendations/?id=<int>&limit=<int>.
// Validation failures are rejected before any storage or scoring work.
func (h *RecommendationsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
		return
	}

	result, err := h.service.Recommend(r.Context(), params.ID, params.Limit)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	response := RecommendationsResponse{
		ExpGroup:        string(result.Group),
		Recommendations: make([]RecommendedPost, 0, len(result.Posts)),
	}
	for _, p := range result.Posts {
		response.Recommendations = append(response.Recommendations, RecommendedPost{
			ID:    p.ID,
			Text:  p.Text,
			Topic: p.Topic,
		})
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *RecommendationsHandler) parseParams(r *http.Request) (recommendationsParams, error) {
	var params recommendationsParams

	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		return params, errors.New("query parameter 'id' is required")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return params, errors.New("query parameter 'id' must be an integer")
	}
	params.ID = id

	params.Limit = h.defaultLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			return params, errors.New("query parameter 'limit' must be an integer")
		}
		params.Limit = limit
	}

	if err := h.validate.Struct(params); err != nil {
		return params, errors.New("query parameters out of range: 'id' must be non-negative and 'limit' positive")
	}

	return params, nil
}

// respondPipelineError maps pipeline failures to status codes:
// unknown user is the caller's problem, storage outages are transient,
// and assembler/model contract violations are deployment bugs.
func (h *RecommendationsHandler) respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
	case errors.Is(err, database.ErrStorageUnavailable):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Storage backend unavailable")
	case errors.Is(err, features.ErrSchemaMismatch), errors.Is(err, scoring.ErrInvalidFeatureVector):
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Recommendation pipeline misconfigured")
	default:
		h.logger.Error("unclassified_pipeline_error", zap.String("error", logpkg.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to resolve recommendations")
	}
}
