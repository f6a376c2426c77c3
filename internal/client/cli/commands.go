package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/storefront/internal/client/api"
)

func (a *App) register(ctx context.Context) error {
	var (
		r   api.RegisterRequest
		err error
	)
	if r.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if r.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if r.Password, err = GetPassword(a.reader, "Password", a.out); err != nil {
		return err
	}
	if r.ConfirmPassword, err = GetPassword(a.reader, "Confirm password", a.out); err != nil {
		return err
	}

	msg, err := a.api.Register(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	username, err := a.ask("Username", args)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	tok, err := a.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.session.Save(&Session{Username: username, AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", username)
	return nil
}

// logout clears the local session even when the server has already
// forgotten the tokens.
func (a *App) logout(ctx context.Context) error {
	sess, err := a.session.Load()
	if err != nil {
		return err
	}

	err = a.api.Logout(ctx, sess.AccessToken, sess.RefreshToken)
	if err != nil && !api.IsUnauthenticated(err) {
		return err
	}
	if err := a.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Successfully logged out")
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	sess, err := a.session.Load()
	if err != nil {
		return err
	}
	if err := a.rotate(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) rotate(ctx context.Context, sess *Session) error {
	tok, err := a.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return err
	}
	sess.AccessToken, sess.RefreshToken = tok.AccessToken, tok.RefreshToken
	return a.session.Save(sess)
}

// profile retries once with a refreshed pair when the access token is rejected.
func (a *App) profile(ctx context.Context) error {
	sess, err := a.session.Load()
	if err != nil {
		return err
	}

	p, err := a.api.Profile(ctx, sess.AccessToken)
	if api.IsUnauthenticated(err) && sess.RefreshToken != "" {
		if rerr := a.rotate(ctx, sess); rerr != nil {
			return errors.Join(err, rerr)
		}
		p, err = a.api.Profile(ctx, sess.AccessToken)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, p.Msg)
	fmt.Fprintf(a.out, "id:       %s\nusername: %s\nemail:    %s\n", p.User.ID, p.User.Username, p.User.Email)
	return nil
}

func (a *App) resetRequest(ctx context.Context, args []string) error {
	email, err := a.ask("Email", args)
	if err != nil {
		return err
	}
	msg, err := a.api.RequestReset(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	token, err := a.ask("Reset token", args)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "New password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.reader, "Confirm password", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.ResetPassword(ctx, token, password, confirm)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) products(ctx context.Context) error {
	list, err := a.api.Products(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No products")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tCATEGORY\tAVAILABLE\tOWNER")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%t\t%s\n", p.ID, p.Name, p.Price, p.Category, p.IsAvailable, p.OwnerUsername)
	}
	return w.Flush()
}
