package http

import (
	"log/slog"
	"net/http"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// SocialHandler handles follow, favorite and profile endpoints.
type SocialHandler struct {
	service *service.SocialService
	logger  *slog.Logger
}

// NewSocialHandler creates a new social HTTP handler.
func NewSocialHandler(svc *service.SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		service: svc,
		logger:  logger,
	}
}

type followingResponse struct {
	IsFollowing bool `json:"is_following"`
}

type favoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// Follow handles POST /api/v1/users/{userId}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	if err := h.service.Follow(r.Context(), callerID(r), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, followingResponse{IsFollowing: true})
}

// Unfollow handles DELETE /api/v1/users/{userId}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	if err := h.service.Unfollow(r.Context(), callerID(r), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IsFollowing handles GET /api/v1/users/{userId}/follow
func (h *SocialHandler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	following, err := h.service.IsFollowing(r.Context(), callerID(r), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, followingResponse{IsFollowing: following})
}

// Profile handles GET /api/v1/users/{userId}/profile. is_following is only
// filled in for authenticated callers.
func (h *SocialHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), userID, callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, profile)
}

// ListFollowers handles GET /api/v1/users/{userId}/followers
func (h *SocialHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	edges, total, err := h.service.ListFollowers(r.Context(), userID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(edges, total, params))
}

// ListFollowing handles GET /api/v1/users/{userId}/following
func (h *SocialHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	edges, total, err := h.service.ListFollowing(r.Context(), userID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(edges, total, params))
}

// AddFavorite handles POST /api/v1/products/{productId}/favorite
func (h *SocialHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	if err := h.service.AddFavorite(r.Context(), callerID(r), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, favoriteResponse{IsFavorite: true})
}

// RemoveFavorite handles DELETE /api/v1/products/{productId}/favorite
func (h *SocialHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), callerID(r), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IsFavorite handles GET /api/v1/products/{productId}/favorite
func (h *SocialHandler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}

	favorite, err := h.service.IsFavorite(r.Context(), callerID(r), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, favoriteResponse{IsFavorite: favorite})
}

// ListFavorites handles GET /api/v1/me/favorites
func (h *SocialHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	favorites, total, err := h.service.ListFavorites(r.Context(), callerID(r), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(favorites, total, params))
}
