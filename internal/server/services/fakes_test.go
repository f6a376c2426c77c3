package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/mail"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	productsrepo "github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	usersrepo "github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- users ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	createErr  error
	getErr     error
	consumeErr error
	consumedAt []time.Time
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.UserName == userName })
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (f *fakeUsersRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetToken = &token
	u.TokenExpiration = &expiresAt
	return nil
}

func (f *fakeUsersRepo) ConsumeResetToken(ctx context.Context, userID, token, passwordHash string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumedAt = append(f.consumedAt, now)
	if f.consumeErr != nil {
		return f.consumeErr
	}
	u, ok := f.users[userID]
	if !ok || u.ResetToken == nil || *u.ResetToken != token || !u.HasPendingReset(now) {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.TokenExpiration = nil
	return nil
}

func (f *fakeUsersRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.users[id]
	return &cp
}

// --- products ---

type fakeProductsRepo struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	createErr error
	updateErr error
}

func newFakeProductsRepo() *fakeProductsRepo {
	return &fakeProductsRepo{products: map[string]*models.Product{}}
}

func (f *fakeProductsRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	cp := *p
	f.products[p.ID] = &cp
	return p, nil
}

func (f *fakeProductsRepo) List(ctx context.Context) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProductsRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductsRepo) Update(ctx context.Context, p *models.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.products, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProductsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), p: newFakeProductsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Products(db dbx.DBTX) productsrepo.Repository { return m.p }

// --- collaborators ---

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeRevoker() *fakeRevoker { return &fakeRevoker{revoked: map[string]time.Time{}} }

func (r *fakeRevoker) Revoke(jti string, expiresAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[jti]; ok {
		return false
	}
	r.revoked[jti] = expiresAt
	return true
}

func (r *fakeRevoker) has(jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (n *fakeNotifier) Enqueue(msg mail.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

type fakeImages struct {
	mu      sync.Mutex
	n       int
	saved   map[string]string
	deleted []string
	saveErr error
}

func newFakeImages() *fakeImages { return &fakeImages{saved: map[string]string{}} }

func (f *fakeImages) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("products/%d-%s", f.n, filename)
	f.saved[key] = string(b)
	return key, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) URL(ctx context.Context, key string) (string, error) {
	return "/static/" + key, nil
}

func strPtr(s string) *string { return &s }

func mustHash(t *testing.T, h interface{ Hash(string) (string, error) }, pw string) string {
	t.Helper()
	s, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return s
}
