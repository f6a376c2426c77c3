// Package auth holds the authentication core of the server: password
// hashing, JWT issuing and parsing, the revocation registry and the guard
// that turns a bearer token into an Identity and checks ownership.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims are the JWT claims carried by access and refresh tokens. The
// subject is the user id and ID is the jti used as the revocation key.
type Claims struct {
	jwt.RegisteredClaims
	UserName string    `json:"username"`
	Kind     TokenKind `json:"kind"`
}

// TokenIssuer mints and parses HS256 tokens. It keeps no state besides its
// key and lifetimes.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) ttl(kind TokenKind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return i.accessTTL, nil
	case KindRefresh:
		return i.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// Issue returns a signed token of the given kind for the user together with
// the claims it carries. Every call gets a fresh jti.
func (i *TokenIssuer) Issue(userID, userName string, kind TokenKind) (string, *Claims, error) {
	ttl, err := i.ttl(kind)
	if err != nil {
		return "", nil, err
	}

	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserName: userName,
		Kind:     kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
// Expired tokens yield common.ErrTokenExpired; anything else that is wrong
// with the token yields common.ErrInvalidToken.
func (i *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing jti or subject", common.ErrInvalidToken)
	}
	if _, err := i.ttl(claims.Kind); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return claims, nil
}
