// Package identity resolves the caller behind a bearer token. Sign-up, sign-in
// and token issuance stay with the external auth server.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/musui/musui-server/internal/model"
)

// Provider resolves and revokes user sessions.
type Provider interface {
	// CurrentUser returns the user owning token. An invalid or expired token is
	// model.ErrUnauthenticated.
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	SignOut(ctx context.Context, token string) error
}

// Directory answers account questions that need the service-role key.
type Directory interface {
	EmailRegistered(ctx context.Context, email string) (bool, error)
}

var errNoToken = errors.New("no token")

// ExtractToken reads the access token from "Authorization: Bearer <token>" or,
// failing that, from the session cookie.
func ExtractToken(r *http.Request, cookieName string) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid Authorization header format, expected 'Bearer <token>'")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", errNoToken
}

type contextKey string

const (
	userKey  contextKey = "identity.user"
	tokenKey contextKey = "identity.token"
)

// WithUser stores the resolved user and its token on ctx.
func WithUser(ctx context.Context, u *model.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFrom returns the user stored by WithUser, or nil for anonymous callers.
func UserFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// TokenFrom returns the raw token stored by WithUser.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
