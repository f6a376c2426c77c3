package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
)

// Identity is the authenticated caller behind a verified token.
type Identity struct {
	UserID    string
	UserName  string
	TokenID   string
	Kind      TokenKind
	ExpiresAt time.Time
}

// Owned is any resource with a recorded owner.
type Owned interface {
	ResourceOwnerID() string
}

type RevocationChecker interface {
	IsRevoked(jti string) bool
}

// Guard authenticates requests. Failures wrap common.ErrUnauthenticated.
type Guard struct {
	issuer  *TokenIssuer
	revoked RevocationChecker
}

func NewGuard(issuer *TokenIssuer, revoked RevocationChecker) *Guard {
	return &Guard{issuer: issuer, revoked: revoked}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if h == "" {
		return "", fmt.Errorf("%w: missing authorization header", common.ErrUnauthenticated)
	}
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", fmt.Errorf("%w: authorization header is not a bearer token", common.ErrUnauthenticated)
	}
	token := strings.TrimSpace(h[len(common.BearerPrefix):])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", common.ErrUnauthenticated)
	}
	return token, nil
}

// Authenticate resolves the caller of r, requiring a token of the given kind.
func (g *Guard) Authenticate(r *http.Request, kind TokenKind) (*Identity, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return g.AuthenticateToken(token, kind)
}

// AuthenticateToken verifies signature and expiry, rejects revoked jtis and
// tokens of the wrong kind, and returns the embedded identity.
func (g *Guard) AuthenticateToken(token string, kind TokenKind) (*Identity, error) {
	claims, err := g.issuer.Parse(token)
	if err != nil {
		return nil, errors.Join(common.ErrUnauthenticated, err)
	}
	if g.revoked.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: token has been revoked", common.ErrUnauthenticated)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: %s token required", common.ErrUnauthenticated, kind)
	}

	return &Identity{
		UserID:    claims.Subject,
		UserName:  claims.UserName,
		TokenID:   claims.ID,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CanMutate is the single ownership predicate for mutating operations.
func CanMutate(identity *Identity, resource Owned) error {
	if identity == nil {
		return common.ErrUnauthenticated
	}
	if resource.ResourceOwnerID() != identity.UserID {
		return common.ErrForbidden
	}
	return nil
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}
