package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/health"
	"github.com/emrahgewer/yorumatorapp/pkg/middleware"
)

// Services bundles the engine services the router exposes.
type Services struct {
	Reviews       *service.ReviewService
	Social        *service.SocialService
	Opinions      *service.OpinionService
	Replies       *service.ReplyService
	QA            *service.QAService
	Notifications *service.NotificationService
}

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	PprofCIDRs  []string
	// TokenValidator enables bearer authentication. When nil the caller is
	// taken from the gateway's X-User-ID header.
	TokenValidator middleware.TokenValidator
	// WriteRPS and WriteBurst limit engagement writes per caller. Zero
	// disables the limit.
	WriteRPS   float64
	WriteBurst int
}

// NewRouter creates a chi router with all engagement routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

	// Ops endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	identity := middleware.HeaderIdentity()
	if cfg.TokenValidator != nil {
		identity = middleware.Authenticate(cfg.TokenValidator)
	}
	admin := middleware.RequireRole(middleware.RoleAdmin)
	limited := middleware.RateLimit(cfg.WriteRPS, cfg.WriteBurst, logger)

	reviews := NewReviewHandler(svcs.Reviews, logger)
	social := NewSocialHandler(svcs.Social, logger)
	opinions := NewOpinionHandler(svcs.Opinions, logger)
	replies := NewReplyHandler(svcs.Replies, logger)
	qa := NewQAHandler(svcs.QA, logger)
	notifications := NewNotificationHandler(svcs.Notifications, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity)

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/reviews", reviews.ListReviews)
			r.With(middleware.RequireAuth, limited).Post("/reviews", reviews.CreateReview)
			r.Get("/rating", reviews.GetRating)
			r.With(admin).Post("/rating/refresh", reviews.RefreshRating)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.With(limited).Post("/favorite", social.AddFavorite)
				r.With(limited).Delete("/favorite", social.RemoveFavorite)
				r.Get("/favorite", social.IsFavorite)
			})

			r.Get("/questions", qa.ListQuestions)
			r.With(middleware.RequireAuth, limited).Post("/questions", qa.CreateQuestion)
		})

		r.Route("/reviews/{reviewId}", func(r chi.Router) {
			r.Get("/", reviews.GetReview)
			r.With(admin).Patch("/status", reviews.UpdateStatus)
			r.With(middleware.RequireAuth).Delete("/", reviews.DeleteReview)

			r.With(middleware.RequireAuth, limited).Put("/opinion", opinions.SetOpinion)
			r.Get("/opinions", opinions.Stats)

			r.Get("/replies", replies.ListReplies)
			r.With(middleware.RequireAuth, limited).Post("/replies", replies.CreateReply)
		})

		r.Get("/replies/{replyId}/children", replies.ListChildren)

		r.With(middleware.RequireAuth).Get("/users/me/reviews", reviews.ListMyReviews)

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.With(limited).Post("/follow", social.Follow)
				r.With(limited).Delete("/follow", social.Unfollow)
				r.Get("/follow", social.IsFollowing)
			})
			r.Get("/profile", social.Profile)
			r.Get("/followers", social.ListFollowers)
			r.Get("/following", social.ListFollowing)
		})

		r.With(middleware.RequireAuth).Get("/me/favorites", social.ListFavorites)

		r.Get("/questions/{questionId}", qa.GetQuestion)
		r.With(middleware.RequireAuth, limited).Post("/questions/{questionId}/answers", qa.CreateAnswer)
		r.With(middleware.RequireAuth, limited).Post("/answers/{answerId}/helpful", qa.MarkHelpful)

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", notifications.List)
			r.Get("/unread-count", notifications.UnreadCount)
			r.Put("/read-all", notifications.MarkAllRead)
			r.Put("/{notificationId}/read", notifications.MarkRead)
		})
	})

	return r
}
