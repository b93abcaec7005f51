package http

import (
	"log/slog"
	"net/http"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// QAHandler handles product question and answer endpoints.
type QAHandler struct {
	service *service.QAService
	logger  *slog.Logger
}

// NewQAHandler creates a new Q&A HTTP handler.
func NewQAHandler(svc *service.QAService, logger *slog.Logger) *QAHandler {
	return &QAHandler{
		service: svc,
		logger:  logger,
	}
}

// TextRequest is the JSON request body for questions and answers.
type TextRequest struct {
	Body string `json:"body" validate:"required,notblank,max=2000"`
}

// CreateQuestion handles POST /api/v1/products/{productId}/questions
func (h *QAHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	var req TextRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	q, err := h.service.CreateQuestion(r.Context(), productID, callerID(r), req.Body)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, q)
}

// ListQuestions handles GET /api/v1/products/{productId}/questions
func (h *QAHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	questions, total, err := h.service.ListQuestions(r.Context(), productID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(questions, total, params))
}

// GetQuestion handles GET /api/v1/questions/{questionId}
func (h *QAHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := idParam(w, r, "questionId")
	if !ok {
		return
	}

	detail, err := h.service.GetQuestion(r.Context(), questionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, detail)
}

// CreateAnswer handles POST /api/v1/questions/{questionId}/answers
func (h *QAHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := idParam(w, r, "questionId")
	if !ok {
		return
	}

	var req TextRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	result, err := h.service.CreateAnswer(r.Context(), questionID, callerID(r), req.Body)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}

// MarkHelpful handles POST /api/v1/answers/{answerId}/helpful
func (h *QAHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	answerID, ok := idParam(w, r, "answerId")
	if !ok {
		return
	}

	answer, err := h.service.MarkHelpful(r.Context(), answerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, answer)
}
