package http

import (
	"log/slog"
	"net/http"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// ReviewHandler handles HTTP requests for review and rating endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review. The
// rating range is checked by the service so clients get INVALID_RATING.
type CreateReviewRequest struct {
	Rating int      `json:"rating"`
	Title  string   `json:"title" validate:"max=160"`
	Body   string   `json:"body" validate:"required,notblank,max=5000"`
	Pros   []string `json:"pros" validate:"max=10,dive,notblank,max=200"`
	Cons   []string `json:"cons" validate:"max=10,dive,notblank,max=200"`
}

// UpdateStatusRequest is the JSON request body for moderating a review.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Handlers ---

// CreateReview handles POST /api/v1/products/{productId}/reviews
// @Summary Create a product review
// @Description Scores the review, stores it and refreshes the product rating.
// @Tags reviews
// @Accept json
// @Produce json
// @Param productId path string true "Product UUID"
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	result, err := h.service.CreateReview(r.Context(), &service.CreateReviewInput{
		ProductID: productID,
		UserID:    callerID(r),
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
		Pros:      req.Pros,
		Cons:      req.Cons,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}

// ListReviews handles GET /api/v1/products/{productId}/reviews
// @Summary List product reviews
// @Tags reviews
// @Produce json
// @Param productId path string true "Product UUID"
// @Param status query string false "approved by default; pending and rejected are admin only"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	reviews, total, err := h.service.ListProductReviews(r.Context(), productID, r.URL.Query().Get("status"), viewer(r), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// GetReview handles GET /api/v1/reviews/{reviewId}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), reviewID, viewer(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// ListMyReviews handles GET /api/v1/users/me/reviews
// @Summary List the caller's reviews
// @Description Returns the caller's reviews in every moderation status.
// @Tags reviews
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/users/me/reviews [get]
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	reviews, total, err := h.service.ListUserReviews(r.Context(), callerID(r), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// UpdateStatus handles PATCH /api/v1/reviews/{reviewId}/status
// @Summary Moderate a review
// @Description Moves a review to another status and refreshes the product rating. Admin only.
// @Tags reviews
// @Accept json
// @Produce json
// @Param reviewId path string true "Review UUID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/reviews/{reviewId}/status [patch]
func (h *ReviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	result, err := h.service.UpdateReviewStatus(r.Context(), reviewID, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// DeleteReview handles DELETE /api/v1/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	rating, err := h.service.DeleteReview(r.Context(), reviewID, callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rating)
}

// GetRating handles GET /api/v1/products/{productId}/rating
func (h *ReviewHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	rating, err := h.service.GetProductRating(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rating)
}

// RefreshRating handles POST /api/v1/products/{productId}/rating/refresh
func (h *ReviewHandler) RefreshRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	rating, err := h.service.RefreshProductRating(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rating)
}
