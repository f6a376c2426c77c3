package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/google/uuid"
)

type ProductsRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.Product
	users *UsersRepository
	now   func() time.Time
}

func NewProductsRepository(users *UsersRepository) *ProductsRepository {
	return &ProductsRepository{byID: map[string]*models.Product{}, users: users, now: time.Now}
}

func (r *ProductsRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if !r.users.exists(p.OwnerID) {
		return nil, fmt.Errorf("db error: owner %s does not exist", p.OwnerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = r.now()
	cp := *p
	r.byID[p.ID] = &cp
	return p, nil
}

// List returns products in creation order.
func (r *ProductsRepository) List(ctx context.Context) ([]*models.Product, error) {
	r.mu.RLock()
	result := make([]*models.Product, 0, len(r.byID))
	for _, p := range r.byID {
		result = append(result, r.withOwner(p))
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *ProductsRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.withOwner(p), nil
}

func (r *ProductsRepository) Update(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *p
	cp.OwnerID = cur.OwnerID
	cp.CreatedAt = cur.CreatedAt
	r.byID[p.ID] = &cp
	return nil
}

func (r *ProductsRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *ProductsRepository) withOwner(p *models.Product) *models.Product {
	cp := *p
	if p.ImagePath != nil {
		s := *p.ImagePath
		cp.ImagePath = &s
	}
	cp.OwnerUserName = r.users.userName(p.OwnerID)
	return &cp
}
