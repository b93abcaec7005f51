package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/logger"
)

type identityKey struct{}

// Role values carried in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims is the caller identity resolved from a request.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// WithIdentity stores claims in ctx and tags the request logger with the user.
func WithIdentity(ctx context.Context, c Claims) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, c)
	ctx = logger.WithUserID(ctx, c.UserID)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", c.UserID)))
}

func identityFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(identityKey{}).(Claims)
	return c, ok
}

// UserIDFromContext returns the authenticated user ID, or "" for anonymous
// requests.
func UserIDFromContext(ctx context.Context) string {
	c, _ := identityFromContext(ctx)
	return c.UserID
}

// RoleFromContext returns the authenticated user's role.
func RoleFromContext(ctx context.Context) string {
	c, _ := identityFromContext(ctx)
	return c.Role
}

// Authenticate resolves the caller from an "Authorization: Bearer" header.
// Requests without the header continue anonymously; a malformed or rejected
// token ends the request with 401.
func Authenticate(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), nil)
				return
			}

			claims, err := validate(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *claims)))
		})
	}
}

// HeaderIdentity trusts the X-User-ID and X-User-Role headers set by an
// upstream gateway. It is only mounted when token auth is disabled. A user ID
// that is not a UUID ends the request with 400; valid IDs are stored in
// canonical lower-case form.
func HeaderIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(header)
			if err != nil {
				httputil.WriteError(w, r, apperrors.InvalidInput("X-User-ID must be a UUID").WithCode("INVALID_USER_ID"), nil)
				return
			}
			userID := id.String()
			role := r.Header.Get("X-User-Role")
			if role == "" {
				role = RoleUser
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Claims{UserID: userID, Role: role})))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous callers with 401 and callers whose role is
// not listed with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := identityFromContext(r.Context())
			if !ok || c.UserID == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if _, ok := allowed[c.Role]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
