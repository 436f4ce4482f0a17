package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spanow/ummati"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long: `Sign in to the marketplace. The credential and user are stored in the
state file so later commands and "ummati serve" start signed in.

The password is prompted for without echo. Pass --password-stdin to read it
from standard input instead.

Example:
  ummati login -e amina@ummati.ma
  echo "$PASSWORD" | ummati login -e amina@ummati.ma --password-stdin`,
		RunE: runLogin,
	}
	cmd.Flags().StringP("email", "e", "", "account email (required)")
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	password, err := readPassword(cmd, fromStdin)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *ummati.App) error {
		if err := app.Login(ctx, email, password); err != nil {
			if errors.Is(err, ummati.ErrUnauthorized) {
				return errors.New("invalid email or password")
			}
			return err
		}
		user := app.Session().User
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.DisplayName(), user.Role)
		return nil
	})
}

// readPassword reads one line from stdin, or prompts without echo when
// stdin is a terminal.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, _, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Restore the stored session, validate it against the API and print the
signed-in user. An expired or revoked credential is cleared.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *ummati.App) error {
				out := cmd.OutOrStdout()
				s := app.Session()
				if !s.IsAuthenticated {
					fmt.Fprintln(out, "Not signed in")
					return nil
				}
				u := s.User
				fmt.Fprintf(out, "%s <%s>\n", u.DisplayName(), u.Email)
				fmt.Fprintf(out, "  id:   %s\n", u.ID)
				fmt.Fprintf(out, "  role: %s\n", u.Role)
				if u.City != "" {
					fmt.Fprintf(out, "  city: %s\n", u.City)
				}
				if len(u.Skills) > 0 {
					fmt.Fprintf(out, "  skills: %s\n", strings.Join(u.Skills, ", "))
				}
				return nil
			})
		},
	}
}
