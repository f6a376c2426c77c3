package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/storefront/internal/client/api"
	"github.com/dmitrijs2005/storefront/internal/client/config"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// apiClient is the server surface the commands need. *api.Client satisfies it.
type apiClient interface {
	Register(ctx context.Context, r api.RegisterRequest) (string, error)
	Login(ctx context.Context, username, password string) (*api.Tokens, error)
	Logout(ctx context.Context, access, refresh string) error
	Refresh(ctx context.Context, refresh string) (*api.Tokens, error)
	Profile(ctx context.Context, access string) (*api.Profile, error)
	RequestReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password, confirm string) (string, error)
	Products(ctx context.Context) ([]api.Product, error)
}

type App struct {
	config  *config.Config
	api     apiClient
	session *sessionStore
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) *App {
	return newApp(c, api.New(c.ServerURL, nil), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, client apiClient, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		api:     client,
		session: &sessionStore{path: c.SessionFile},
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run executes a single subcommand, or the interactive prompt when args is empty.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.repl(ctx)
	}
	return a.exec(ctx, args[0], args[1:])
}

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "-h", "--help":
		a.help()
		return nil
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "profile":
		return a.profile(ctx)
	case "refresh":
		return a.refresh(ctx)
	case "reset-request":
		return a.resetRequest(ctx, args)
	case "reset-password":
		return a.resetPassword(ctx, args)
	case "products":
		return a.products(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, `Available commands:
  register                 create an account
  login [username]         authenticate and save tokens
  logout                   revoke the saved tokens
  profile                  show the current user
  refresh                  exchange the refresh token for a new pair
  reset-request [email]    send a password reset link
  reset-password [token]   set a new password using a reset token
  products                 list products
  exit | quit              leave the interactive prompt`)
}

func (a *App) ask(prompt string, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}
