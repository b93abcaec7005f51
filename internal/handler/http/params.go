package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/pkg/httputil"
	"github.com/emrahgewer/yorumatorapp/pkg/middleware"
)

// idParam reads a UUID path parameter. On failure the 400 response has
// already been written.
func idParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, name))
	if !ok {
		return "", false
	}
	return id.String(), true
}

// callerID returns the authenticated user, or "" for anonymous requests.
func callerID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func viewer(r *http.Request) service.Viewer {
	return service.Viewer{
		UserID: callerID(r),
		Admin:  middleware.RoleFromContext(r.Context()) == middleware.RoleAdmin,
	}
}

func boolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
