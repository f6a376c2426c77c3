// Package httpserver exposes the storefront API over HTTP: the auth
// endpoints, the product catalog, health and static image serving.
package httpserver

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Logout(ctx context.Context, identity *auth.Identity, refreshToken string) error
	Refresh(ctx context.Context, identity *auth.Identity) (*services.TokenPair, error)
	Profile(ctx context.Context, identity *auth.Identity) (*models.User, error)
}

type ResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type ProductService interface {
	Create(ctx context.Context, identity *auth.Identity, in services.ProductInput, img *services.Image) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, identity *auth.Identity, id string, patch services.ProductPatch, img *services.Image) (*models.Product, error)
	Delete(ctx context.Context, identity *auth.Identity, id string) error
	ImageURL(ctx context.Context, p *models.Product) string
}

// Authenticator resolves the caller of a request from its bearer token.
type Authenticator interface {
	Authenticate(r *http.Request, kind auth.TokenKind) (*auth.Identity, error)
}

type Handler struct {
	users    UserService
	resets   ResetService
	products ProductService
	guard    Authenticator
	logger   logging.Logger
}

func NewHandler(us UserService, rs ResetService, ps ProductService, guard Authenticator, l logging.Logger) *Handler {
	return &Handler{
		users:    us,
		resets:   rs,
		products: ps,
		guard:    guard,
		logger:   l.With("module", "http_handler"),
	}
}
