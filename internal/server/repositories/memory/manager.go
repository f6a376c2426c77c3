// Package memory implements the repositories in process memory. It backs
// the server when no database is configured and the HTTP tests. Data does
// not survive a restart.
package memory

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// RepositoryManager ignores the DBTX it is given; every caller shares the
// same stores.
type RepositoryManager struct {
	users    *UsersRepository
	products *ProductsRepository
}

func NewRepositoryManager() *RepositoryManager {
	u := NewUsersRepository()
	return &RepositoryManager{users: u, products: NewProductsRepository(u)}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *RepositoryManager) Products(dbx.DBTX) products.Repository { return m.products }
