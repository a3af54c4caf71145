package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
	"go.uber.org/zap"
)

// Interceptor is one step of the access-control pipeline. It either returns
// the request to continue with (possibly carrying an enriched context) or an
// error that ends the request.
type Interceptor func(r *http.Request) (*http.Request, error)

// UserLookup resolves the user named by a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Gate builds the interceptors that need the token service and user store.
type Gate struct {
	tokens *auth.TokenService
	users  UserLookup
}

func NewGate(tokens *auth.TokenService, users UserLookup) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate requires a valid bearer token naming an existing user.
func (g *Gate) Authenticate(r *http.Request) (*http.Request, error) {
	token, err := auth.BearerToken(r.Header.Get(webutil.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return g.resolve(r, token)
}

// OptionalAuthenticate resolves the caller when a token is presented and
// lets anonymous requests through. A token that fails to resolve is treated
// as anonymous.
func (g *Gate) OptionalAuthenticate(r *http.Request) (*http.Request, error) {
	token, err := auth.BearerToken(r.Header.Get(webutil.HeaderAuthorization))
	if err != nil {
		return r, nil
	}
	authed, err := g.resolve(r, token)
	if err != nil {
		zap.L().Debug("ignoring unusable token on public route", zap.String("path", r.URL.Path), zap.Error(err))
		return r, nil
	}
	return authed, nil
}

func (g *Gate) resolve(r *http.Request, token string) (*http.Request, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			zap.L().Info("expired token presented", zap.String("path", r.URL.Path))
		} else {
			zap.L().Info("malformed token presented", zap.String("path", r.URL.Path), zap.Error(err))
		}
		return nil, err
	}

	user, err := g.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", claims.UserID, err)
	}
	return r.WithContext(auth.WithUser(r.Context(), user, claims)), nil
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(r *http.Request) (*http.Request, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrMissingToken
	}
	if !user.IsAdmin {
		return nil, auth.ErrForbidden
	}
	return r, nil
}

// RequireNotBanned must run after Authenticate.
func RequireNotBanned(r *http.Request) (*http.Request, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrMissingToken
	}
	if user.IsBanned {
		return nil, auth.ErrBanned
	}
	return r, nil
}

// Pipeline runs the interceptors in order and responds with the first error.
func Pipeline(steps ...Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, step := range steps {
				nr, err := step(r)
				if err != nil {
					webutil.RespondWithError(w, r, err)
					return
				}
				r = nr
			}
			next.ServeHTTP(w, r)
		})
	}
}
