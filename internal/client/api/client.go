// Package api is the HTTP client for the storefront server API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. hc may be nil.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return http.StatusText(e.Status)
		}
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Unwrap maps the status onto the shared sentinel errors.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrUnauthenticated
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	default:
		return nil
	}
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	Msg  string `json:"msg"`
	User User   `json:"user"`
}

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	IsAvailable   bool      `json:"is_available"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerUsername string    `json:"owner_username"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &Error{Status: resp.StatusCode, Message: eb.Message, Fields: eb.Errors}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (string, error) {
	var m message
	err := c.do(ctx, http.MethodPost, "/api/register", "", r, &m)
	return m.Message, err
}

func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	var t Tokens
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Logout revokes the access token and, when given, the refresh token.
func (c *Client) Logout(ctx context.Context, access, refresh string) error {
	var in any
	if refresh != "" {
		in = map[string]string{"refresh_token": refresh}
	}
	return c.do(ctx, http.MethodPost, "/api/logout", access, in, nil)
}

func (c *Client) Refresh(ctx context.Context, refresh string) (*Tokens, error) {
	var t Tokens
	if err := c.do(ctx, http.MethodPost, "/api/refresh", refresh, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Profile(ctx context.Context, access string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", access, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) RequestReset(ctx context.Context, email string) (string, error) {
	var m message
	err := c.do(ctx, http.MethodPost, "/api/reset_request", "", map[string]string{"email": email}, &m)
	return m.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, token, password, confirm string) (string, error) {
	var m message
	in := map[string]string{"token": token, "password": password, "confirm_password": confirm}
	err := c.do(ctx, http.MethodPost, "/api/reset_password", "", in, &m)
	return m.Message, err
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var list []Product
	if err := c.do(ctx, http.MethodGet, "/api/products/", "", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// IsUnauthenticated reports whether err is a 401 from the server.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, common.ErrUnauthenticated)
}
