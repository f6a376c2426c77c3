package services

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	usersrepo "github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type userFixture struct {
	svc     *UserService
	rm      *fakeRepoManager
	revoker *fakeRevoker
	issuer  *auth.TokenIssuer
	hasher  *auth.PasswordHasher
}

func newUserFixture(t *testing.T, db *sql.DB) *userFixture {
	t.Helper()
	rm := newFakeRepoManager()
	rv := newFakeRevoker()
	issuer := auth.NewTokenIssuer([]byte("k"), time.Hour, 2*time.Hour)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	return &userFixture{
		svc:     NewUserService(db, rm, hasher, issuer, rv, logging.NewNopLogger()),
		rm:      rm,
		revoker: rv,
		issuer:  issuer,
		hasher:  hasher,
	}
}

func (f *userFixture) seed(t *testing.T, name, email, pw string) *models.User {
	t.Helper()
	return f.rm.u.add(&models.User{UserName: name, Email: email, PasswordHash: mustHash(t, f.hasher, pw)})
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	f := newUserFixture(t, db)

	u, err := f.svc.Register(context.Background(), "alice", "a@x.io", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.UserName)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, f.hasher.Verify("secret1", u.PasswordHash))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_TakenFields(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	f := newUserFixture(t, db)
	f.seed(t, "alice", "a@x.io", "secret1")

	_, err := f.svc.Register(context.Background(), "alice", "a@x.io", "other12")

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	assert.EqualError(t, verrs["username"], msgUsernameTaken)
	assert.EqualError(t, verrs["email"], msgEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_UniqueViolationRace(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	f := newUserFixture(t, db)
	f.rm.u.createErr = &usersrepo.DuplicateError{Field: "email"}

	_, err := f.svc.Register(context.Background(), "bob", "b@x.io", "secret1")

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	assert.EqualError(t, verrs["email"], msgEmailTaken)
	assert.NotContains(t, verrs, "username")
}

func TestRegister_LookupError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	f := newUserFixture(t, db)
	f.rm.u.getErr = errors.New("db down")

	_, err := f.svc.Register(context.Background(), "bob", "b@x.io", "secret1")
	assert.EqualError(t, err, "db down")
}

func TestLogin(t *testing.T) {
	f := newUserFixture(t, nil)
	alice := f.seed(t, "alice", "a@x.io", "secret1")

	t.Run("success", func(t *testing.T) {
		pair, err := f.svc.Login(context.Background(), "alice", "secret1")
		require.NoError(t, err)

		access, err := f.issuer.Parse(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, auth.KindAccess, access.Kind)
		assert.Equal(t, alice.ID, access.Subject)
		assert.Equal(t, "alice", access.UserName)

		refresh, err := f.issuer.Parse(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.KindRefresh, refresh.Kind)
		assert.NotEqual(t, access.ID, refresh.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), "alice", "nope")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), "mallory", "secret1")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}

func TestLogin_RepoError(t *testing.T) {
	f := newUserFixture(t, nil)
	f.rm.u.getErr = errors.New("db down")

	_, err := f.svc.Login(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func identityFor(t *testing.T, issuer *auth.TokenIssuer, u *models.User, kind auth.TokenKind) (string, *auth.Identity) {
	t.Helper()
	tok, claims, err := issuer.Issue(u.ID, u.UserName, kind)
	require.NoError(t, err)
	return tok, &auth.Identity{
		UserID:    u.ID,
		UserName:  u.UserName,
		TokenID:   claims.ID,
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

func TestLogout(t *testing.T) {
	f := newUserFixture(t, nil)
	alice := f.seed(t, "alice", "a@x.io", "secret1")
	bob := f.seed(t, "bob", "b@x.io", "secret1")

	t.Run("access only", func(t *testing.T) {
		_, id := identityFor(t, f.issuer, alice, auth.KindAccess)
		require.NoError(t, f.svc.Logout(context.Background(), id, ""))
		assert.True(t, f.revoker.has(id.TokenID))
	})

	t.Run("with own refresh token", func(t *testing.T) {
		_, id := identityFor(t, f.issuer, alice, auth.KindAccess)
		refresh, rid := identityFor(t, f.issuer, alice, auth.KindRefresh)

		require.NoError(t, f.svc.Logout(context.Background(), id, refresh))
		assert.True(t, f.revoker.has(id.TokenID))
		assert.True(t, f.revoker.has(rid.TokenID))
	})

	t.Run("foreign refresh token is ignored", func(t *testing.T) {
		_, id := identityFor(t, f.issuer, alice, auth.KindAccess)
		refresh, rid := identityFor(t, f.issuer, bob, auth.KindRefresh)

		require.NoError(t, f.svc.Logout(context.Background(), id, refresh))
		assert.False(t, f.revoker.has(rid.TokenID))
	})

	t.Run("garbage refresh token is ignored", func(t *testing.T) {
		_, id := identityFor(t, f.issuer, alice, auth.KindAccess)
		assert.NoError(t, f.svc.Logout(context.Background(), id, "garbage"))
	})

	t.Run("no identity", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Logout(context.Background(), nil, ""), common.ErrUnauthenticated)
	})
}

func TestRefresh(t *testing.T) {
	f := newUserFixture(t, nil)
	alice := f.seed(t, "alice", "a@x.io", "secret1")

	_, id := identityFor(t, f.issuer, alice, auth.KindRefresh)
	pair, err := f.svc.Refresh(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, f.revoker.has(id.TokenID))
	claims, err := f.issuer.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, id.TokenID, claims.ID)
}

func TestRefresh_SameTokenRotatesOnce(t *testing.T) {
	rm := newFakeRepoManager()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer([]byte("k"), time.Hour, 2*time.Hour)
	registry := auth.NewRevocationRegistry()
	guard := auth.NewGuard(issuer, registry)
	svc := NewUserService(nil, rm, hasher, issuer, registry, logging.NewNopLogger())

	alice := rm.u.add(&models.User{UserName: "alice", Email: "a@x.io", PasswordHash: mustHash(t, hasher, "secret1")})
	token, _ := identityFor(t, issuer, alice, auth.KindRefresh)

	// Both requests pass the guard before either rotates the token.
	authenticate := func() *auth.Identity {
		r := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
		r.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		id, err := guard.Authenticate(r, auth.KindRefresh)
		require.NoError(t, err)
		return id
	}
	first, second := authenticate(), authenticate()

	pair, err := svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	require.NotNil(t, pair)

	pair, err = svc.Refresh(context.Background(), second)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Nil(t, pair)
}

func TestRefresh_Rejects(t *testing.T) {
	f := newUserFixture(t, nil)
	alice := f.seed(t, "alice", "a@x.io", "secret1")

	_, access := identityFor(t, f.issuer, alice, auth.KindAccess)
	_, err := f.svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	ghost := &models.User{ID: "gone", UserName: "ghost"}
	_, id := identityFor(t, f.issuer, ghost, auth.KindRefresh)
	_, err = f.svc.Refresh(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.False(t, f.revoker.has(id.TokenID))
}

func TestProfile(t *testing.T) {
	f := newUserFixture(t, nil)
	alice := f.seed(t, "alice", "a@x.io", "secret1")
	_, id := identityFor(t, f.issuer, alice, auth.KindAccess)

	u, err := f.svc.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", u.Email)

	_, err = f.svc.Profile(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}
