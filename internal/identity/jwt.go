package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/musui/musui-server/internal/model"
)

// Claims are the access-token claims issued by a GoTrue-compatible server.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTVerifier checks HS256 access tokens locally with the project's JWT secret.
// Revocation is delegated to revoker when set.
type JWTVerifier struct {
	secret  []byte
	revoker Provider
}

func NewJWTVerifier(secret string, revoker Provider) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), revoker: revoker}
}

// Validate parses and validates a token string.
func (v *JWTVerifier) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token subject is required")
	}
	return claims, nil
}

func (v *JWTVerifier) CurrentUser(_ context.Context, token string) (*model.User, error) {
	claims, err := v.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}
	if claims.Role == "anon" {
		return nil, fmt.Errorf("%w: anonymous key", model.ErrUnauthenticated)
	}
	return &model.User{ID: claims.Subject, Email: claims.Email}, nil
}

func (v *JWTVerifier) SignOut(ctx context.Context, token string) error {
	if v.revoker == nil {
		return nil
	}
	return v.revoker.SignOut(ctx, token)
}
