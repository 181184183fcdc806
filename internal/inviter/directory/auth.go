package directory

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) (string, error) {
	var out loginResponse
	err := c.call(ctx, "login", creds.Username, http.MethodPost, "/svc-auth/login", "",
		loginRequest{Username: creds.Username, Password: creds.Password}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", c.fail(ctx, &OperationError{Op: "login", Target: creds.Username, Err: ErrMissingToken})
	}
	return out.AccessToken, nil
}

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. Opaque tokens report false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
