package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/mail"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/memory"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type capturingNotifier struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (n *capturingNotifier) Enqueue(msg mail.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

// lastToken returns the reset token from the most recent mail.
func (n *capturingNotifier) lastToken(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.msgs)
	body := n.msgs[len(n.msgs)-1].TextBody
	_, after, ok := strings.Cut(body, "token=")
	require.True(t, ok, body)
	tok, _, _ := strings.Cut(after, "\n")
	return tok
}

type testEnv struct {
	srv      *httptest.Server
	handler  http.Handler
	notifier *capturingNotifier
	revoked  *auth.RevocationRegistry
	issuer   *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := logging.NewNopLogger()
	rm := memory.NewRepositoryManager()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer([]byte("test-secret"), 15*time.Minute, time.Hour)
	revoked := auth.NewRevocationRegistry()
	guard := auth.NewGuard(issuer, revoked)

	store, err := storage.NewLocalStore(t.TempDir(), "/static")
	require.NoError(t, err)

	notifier := &capturingNotifier{}
	us := services.NewUserService(nil, rm, hasher, issuer, revoked, l)
	rs := services.NewResetService(nil, rm, hasher, notifier, services.ResetOptions{
		PublicURL:          "http://shop.test",
		Validity:           common.ResetTokenValidity,
		RevealUnknownEmail: true,
	}, l)
	ps := services.NewProductService(nil, rm, store, l)

	h := NewHandler(us, rs, ps, guard, l)
	handler := h.Routes(store.Handler())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, handler: handler, notifier: notifier, revoked: revoked, issuer: issuer}
}

type result struct {
	status int
	body   map[string]any
	raw    []byte
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) result {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := result{status: resp.StatusCode, raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var m map[string]any
		if json.Unmarshal(raw, &m) == nil {
			res.body = m
		}
	}
	return res
}

func (e *testEnv) json(t *testing.T, method, path, token string, payload any) result {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e *testEnv) form(t *testing.T, method, path, token string, fields map[string]string, imageName, image string) result {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(image))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return e.do(t, method, path, token, &buf, mw.FormDataContentType())
}

type session struct {
	access  string
	refresh string
}

func (e *testEnv) signup(t *testing.T, name, email, password string) session {
	t.Helper()
	res := e.json(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": name, "email": email, "password": password, "confirm_password": password,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	return e.login(t, name, password)
}

func (e *testEnv) login(t *testing.T, name, password string) session {
	t.Helper()
	res := e.json(t, http.MethodPost, "/api/login", "", map[string]string{"username": name, "password": password})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	return session{access: res.body["access_token"].(string), refresh: res.body["refresh_token"].(string)}
}
