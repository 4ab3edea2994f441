package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/commit-dashboard/internal/model"
)

// credentials reads the password from the first line of stdin when the
// flag was not given.
func credentials(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) signupCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := credentials(cmd, password)
			if err != nil {
				return err
			}
			if err := a.svc.Auth.Signup(cmd.Context(), email, pw); err != nil {
				return err
			}
			success(out(cmd), "Account created. Log in with `commitdash login --email %s`.", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and link a GitHub token if the account has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pw, err := credentials(cmd, password)
			if err != nil {
				return err
			}
			outcome, err := a.svc.Auth.Login(ctx, a.store, email, pw)
			if err != nil {
				return err
			}
			if outcome.NeedsGitHub {
				if token == "" {
					muted(out(cmd), "Logged in, but no GitHub account is linked.")
					muted(out(cmd), "Run `commitdash link-token <personal access token>` to finish.")
					return nil
				}
				if outcome, err = a.svc.Auth.LinkGitHubToken(ctx, a.store, token); err != nil {
					return err
				}
			}
			a.printLanding(cmd, &outcome.Session.User, outcome.Route)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&token, "github-token", "", "GitHub token to link when the account has none")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) linkTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-token <token>",
		Short: "Link a GitHub personal access token to the pending login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := a.svc.Auth.LinkGitHubToken(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			a.printLanding(cmd, &outcome.Session.User, outcome.Route)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Auth.Logout(cmd.Context(), a.store); err != nil {
				return err
			}
			success(out(cmd), "Logged out.")
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore the session and show where the dashboard would start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := a.svc.Boot.Run(ctx, a.store)
			route, err := st.Route(ctx)
			if err != nil {
				return err
			}
			// The profile refresh may still be writing; wait so the next
			// command sees the merged user.
			st.Wait()

			w := out(cmd)
			fmt.Fprintf(w, "State: %s\n", st.State())
			if sess := st.Session(); sess != nil {
				fmt.Fprintf(w, "User:  %s\n", displayName(&sess.User))
			}
			fmt.Fprintf(w, "Start: %s\n", route)
			return nil
		},
	}
}

func (a *app) printLanding(cmd *cobra.Command, u *model.User, route string) {
	success(out(cmd), "Logged in as %s.", displayName(u))
	switch route {
	case model.RouteRepository:
		muted(out(cmd), "Next: `commitdash saved` to pick a repository.")
	case model.RouteCreateRepository:
		muted(out(cmd), "Next: `commitdash repos` to choose a repository to save.")
	}
}

func displayName(u *model.User) string {
	switch {
	case u.Name != "" && u.Login != "":
		return fmt.Sprintf("%s (@%s)", u.Name, u.Login)
	case u.Name != "":
		return u.Name
	case u.Login != "":
		return "@" + u.Login
	}
	return u.Email
}
