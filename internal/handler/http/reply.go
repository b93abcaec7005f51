package http

import (
	"log/slog"
	"net/http"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// ReplyHandler handles the reply tree endpoints.
type ReplyHandler struct {
	service *service.ReplyService
	logger  *slog.Logger
}

// NewReplyHandler creates a new reply HTTP handler.
func NewReplyHandler(svc *service.ReplyService, logger *slog.Logger) *ReplyHandler {
	return &ReplyHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateReplyRequest is the JSON request body for replying to a review or
// to a top-level reply.
type CreateReplyRequest struct {
	Body          string  `json:"body" validate:"required,notblank,max=2000"`
	ParentReplyID *string `json:"parent_reply_id" validate:"omitempty,uuid"`
}

// CreateReply handles POST /api/v1/reviews/{reviewId}/replies
func (h *ReplyHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	var req CreateReplyRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	reply, err := h.service.CreateReply(r.Context(), &service.CreateReplyInput{
		ReviewID:      reviewID,
		UserID:        callerID(r),
		Body:          req.Body,
		ParentReplyID: req.ParentReplyID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, reply)
}

// ListReplies handles GET /api/v1/reviews/{reviewId}/replies. With
// ?expand=children every top-level reply carries its children.
func (h *ReplyHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := idParam(w, r, "reviewId")
	if !ok {
		return
	}

	limit := h.service.PageLimit()
	window := pagination.OffsetFromRequest(r, limit, limit)

	if r.URL.Query().Get("expand") == "children" {
		threads, err := h.service.Thread(r.Context(), reviewID, window.Offset, window.Limit())
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteData(w, http.StatusOK, threads)
		return
	}

	roots, err := h.service.ListTopLevel(r.Context(), reviewID, window.Offset, window.Limit())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, roots)
}

// ListChildren handles GET /api/v1/replies/{replyId}/children
func (h *ReplyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	replyID, ok := idParam(w, r, "replyId")
	if !ok {
		return
	}

	children, err := h.service.ListChildren(r.Context(), replyID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, children)
}
