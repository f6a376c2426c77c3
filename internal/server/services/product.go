package services

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	IsAvailable bool
}

// ProductPatch carries a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	IsAvailable *bool
}

// Image is an uploaded product image.
type Image struct {
	Filename string
	Body     io.Reader
}

type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      storage.ImageStore
	logger      logging.Logger
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore, l logging.Logger) *ProductService {
	return &ProductService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      l.With("module", "product_service"),
	}
}

// Create stores a product owned by the caller, saving img first when given.
func (s *ProductService) Create(ctx context.Context, identity *auth.Identity, in ProductInput, img *Image) (*models.Product, error) {
	if identity == nil {
		return nil, common.ErrUnauthenticated
	}

	p := &models.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		IsAvailable:   in.IsAvailable,
		OwnerID:       identity.UserID,
		OwnerUserName: identity.UserName,
	}

	key, err := s.saveImage(ctx, img)
	if err != nil {
		return nil, err
	}
	p.ImagePath = key

	created, err := s.repomanager.Products(s.db).Create(ctx, p)
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	s.logger.Info(ctx, "product created", "product_id", created.ID, "owner_id", created.OwnerID)
	return created, nil
}

func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	return s.repomanager.Products(s.db).List(ctx)
}

// Get returns the product with id. Ids that are not uuids are reported as
// common.ErrorNotFound.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Products(s.db).Get(ctx, id)
}

// Update applies patch to the caller's product. The ownership check and
// the write share one transaction. A new image replaces the stored one,
// which is removed from storage once the update is committed.
func (s *ProductService) Update(ctx context.Context, identity *auth.Identity, id string, patch ProductPatch, img *Image) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var (
		p              *models.Product
		oldKey, newKey *string
	)
	err := inTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)

		var err error
		if p, err = repo.Get(ctx, id); err != nil {
			return err
		}
		if err := auth.CanMutate(identity, p); err != nil {
			return err
		}
		patch.apply(p)

		oldKey = p.ImagePath
		if newKey, err = s.saveImage(ctx, img); err != nil {
			return err
		}
		if newKey != nil {
			p.ImagePath = newKey
		}
		return repo.Update(ctx, p)
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return nil, err
	}
	if newKey != nil {
		s.discardImage(ctx, oldKey)
	}

	s.logger.Info(ctx, "product updated", "product_id", p.ID)
	return p, nil
}

func (patch ProductPatch) apply(p *models.Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
	}
}

// Delete removes the caller's product together with its image.
func (s *ProductService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CanMutate(identity, p); err != nil {
		return err
	}

	if err := s.repomanager.Products(s.db).Delete(ctx, p.ID); err != nil {
		return err
	}
	s.discardImage(ctx, p.ImagePath)

	s.logger.Info(ctx, "product deleted", "product_id", p.ID)
	return nil
}

// ImageURL returns a fetchable link for the product image, or "" when the
// product has none or the link cannot be built.
func (s *ProductService) ImageURL(ctx context.Context, p *models.Product) string {
	if p.ImagePath == nil {
		return ""
	}
	u, err := s.images.URL(ctx, *p.ImagePath)
	if err != nil {
		s.logger.Warn(ctx, "image url", "product_id", p.ID, "error", err)
		return ""
	}
	return u
}

func (s *ProductService) saveImage(ctx context.Context, img *Image) (*string, error) {
	if img == nil {
		return nil, nil
	}
	if !storage.IsAllowedImage(img.Filename) {
		return nil, validation.Errors{"image": errors.New("image must be a jpg, jpeg or png file")}
	}
	key, err := s.images.Save(ctx, img.Filename, img.Body)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *ProductService) discardImage(ctx context.Context, key *string) {
	if key == nil {
		return
	}
	if err := s.images.Delete(ctx, *key); err != nil {
		s.logger.Warn(ctx, "delete image", "key", *key, "error", err)
	}
}
