package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

func (a *App) prompt() string {
	sess, err := a.session.Load()
	if err != nil || sess.Username == "" {
		return "storefront> "
	}
	return fmt.Sprintf("storefront (%s)> ", sess.Username)
}

// repl reads commands until EOF or exit. Command errors are printed and
// the loop continues.
func (a *App) repl(ctx context.Context) error {
	fmt.Fprintln(a.out, "Storefront client (type 'help' for commands)")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(a.out, a.prompt())

		line, err := a.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		parts := strings.Fields(line)
		if len(parts) > 0 {
			switch parts[0] {
			case "exit", "quit":
				fmt.Fprintln(a.out, "Bye!")
				return nil
			}
			if cerr := a.exec(ctx, parts[0], parts[1:]); cerr != nil {
				fmt.Fprintln(a.out, "Error:", cerr)
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
	}
}
