package http

import (
	"log/slog"
	"net/http"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
)

// OpinionHandler handles like and dislike endpoints.
type OpinionHandler struct {
	service *service.OpinionService
	logger  *slog.Logger
}

// NewOpinionHandler creates a new opinion HTTP handler.
func NewOpinionHandler(svc *service.OpinionService, logger *slog.Logger) *OpinionHandler {
	return &OpinionHandler{
		service: svc,
		logger:  logger,
	}
}

// SetOpinionRequest is the JSON request body for liking or disliking a
// review. IsLike is a pointer so an explicit false passes "required".
type SetOpinionRequest struct {
	IsLike *bool `json:"is_like" validate:"required"`
}

// SetOpinion handles PUT /api/v1/reviews/{reviewId}/opinion
func (h *OpinionHandler) SetOpinion(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	var req SetOpinionRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	outcome, err := h.service.SetOpinion(r.Context(), reviewID, callerID(r), *req.IsLike)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, outcome)
}

// Stats handles GET /api/v1/reviews/{reviewId}/opinions
func (h *OpinionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), reviewID, callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}
