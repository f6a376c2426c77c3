package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"github.com/google/uuid"
)

type UsersRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
	now  func() time.Time
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{byID: map[string]*models.User{}, now: time.Now}
}

// Create enforces username and email uniqueness under the write lock.
func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.UserName == user.UserName {
			return nil, &users.DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return nil, &users.DuplicateError{Field: "email"}
		}
	}

	cp := *user
	cp.ID = uuid.NewString()
	cp.CreatedAt = r.now()
	cp.ResetToken, cp.TokenExpiration = nil, nil
	r.byID[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *UsersRepository) findBy(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.ID == id })
}

func (r *UsersRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.UserName == userName })
}

func (r *UsersRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Email == email })
}

func (r *UsersRepository) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (r *UsersRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, other := range r.byID {
		if other.ResetToken != nil && *other.ResetToken == token && other.ID != userID {
			return common.ErrorAlreadyExists
		}
	}
	u.ResetToken = &token
	u.TokenExpiration = &expiresAt
	return nil
}

// ConsumeResetToken matches on id, token and expiry, like the SQL version,
// so only one of two concurrent callers succeeds.
func (r *UsersRepository) ConsumeResetToken(ctx context.Context, userID, token, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || u.ResetToken == nil || *u.ResetToken != token || !u.HasPendingReset(now) {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.TokenExpiration = nil
	return nil
}

func (r *UsersRepository) userName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return u.UserName
	}
	return ""
}

func (r *UsersRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

func clone(u *models.User) *models.User {
	cp := *u
	if u.ResetToken != nil {
		t := *u.ResetToken
		cp.ResetToken = &t
	}
	if u.TokenExpiration != nil {
		e := *u.TokenExpiration
		cp.TokenExpiration = &e
	}
	return &cp
}
