package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/httputil"
)

type contextKeyType string

const userKey contextKeyType = "user"

// UserLoader is the slice of the user repository the auth middleware needs.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate validates the bearer token, loads the account it names, and
// attaches it to the request context. A token issued before the account's
// last password change is rejected; so is a token for a deactivated or
// deleted account.
func Authenticate(tokens *auth.JWTManager, users UserLoader) func(http.Handler) http.Handler {
	return authenticate(tokens, users, true)
}

// AuthenticateOptional is Authenticate for routes that serve anonymous
// callers too. A missing Authorization header passes through with no user
// attached; a present but invalid one is still rejected.
func AuthenticateOptional(tokens *auth.JWTManager, users UserLoader) func(http.Handler) http.Handler {
	return authenticate(tokens, users, false)
}

func authenticate(tokens *auth.JWTManager, users UserLoader, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("the account belonging to this token no longer exists"))
				return
			}

			issuedAt := time.Time{}
			if claims.IssuedAt != nil {
				issuedAt = claims.IssuedAt.Time
			}
			if user.PasswordChangedAfter(issuedAt) {
				httputil.WriteError(w, r, apperrors.Unauthorized("password was changed after this token was issued"))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route to the given roles. The allow-list is
// checked against the role enum up front; a typo in a route table is a
// programming error and panics at startup rather than silently locking the
// route open or shut.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	if len(roles) == 0 {
		panic("middleware: RequireRole needs at least one role")
	}
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if !domain.IsValidRole(role) {
			panic(fmt.Sprintf("middleware: unknown role %q in RequireRole", role))
		}
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
				return
			}
			if _, ok := roleSet[user.Role]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext extracts the authenticated user from the request context,
// or nil when the request never passed Authenticate.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}
