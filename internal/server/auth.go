package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultUserID is the user attributed to requests when authentication is
// disabled, and to CLI runs that never pass --user.
const DefaultUserID = "local"

// Authenticator resolves a bearer token to a user id. A non-nil error
// rejects the request with 401.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (userID string, err error)
}

// StaticAuthenticator accepts a single pre-shared bearer token and maps it
// to a fixed user id. An empty Token disables authentication entirely, which
// is the default for local single-user deployments.
type StaticAuthenticator struct {
	Token  string
	UserID string
}

func (a StaticAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	uid := a.UserID
	if uid == "" {
		uid = DefaultUserID
	}
	if a.Token == "" {
		return uid, nil
	}
	if token == "" {
		return "", eris.New("server: missing bearer token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return "", eris.New("server: invalid token")
	}
	return uid, nil
}

type userIDKey struct{}

// UserID returns the authenticated user id stored on the request context by
// the auth middleware, or "" outside of it.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey{}).(string)
	return uid
}

// authenticate rejects requests the Authenticator does not recognize. The
// cause stays in the log; the response body is deliberately uniform.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			zap.L().Debug("server: rejected request",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
