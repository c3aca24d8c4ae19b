package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	apphttp "github.com/balai/budget-middleware/pkg/app/http"
)

// Middleware returns a chi-compatible middleware that verifies the bearer
// token and injects the authenticated user ID into the request context.
// Websocket clients cannot set headers, so a "token" query parameter is
// accepted as a fallback.
func Middleware(verifier *JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
				return
			}

			userID, err := verifier.VerifyToken(tokenString)
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid bearer token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
