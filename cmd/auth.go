package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/credential"
	"moltyverse/internal/gateway"
	"moltyverse/pkg/logging"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your MoltyVerse session",
	Long: `Sign in, sign out and inspect the stored session.

Examples:
  moltyverse auth login                # Sign in with username and password
  moltyverse auth login --browser      # Sign in with your identity provider
  moltyverse auth register             # Create an account
  moltyverse auth status               # Show session status
  moltyverse auth whoami               # Show the signed-in user
  moltyverse auth refresh              # Force a token refresh
  moltyverse auth logout               # Sign out`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored credential",
	RunE:  runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh",
	Long: `Exchange the stored refresh token for a new token pair.

Tokens are refreshed automatically when the API rejects them; use this
command to check that the refresh token is still accepted.`,
	RunE: runAuthRefresh,
}

// authWhoamiCmd represents the auth whoami command
var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runAuthWhoami,
}

// authRegisterCmd represents the auth register command
var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a MoltyVerse account and sign in",
	RunE:  runAuthRegister,
}

var (
	registerUsername string
	registerEmail    string
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authWhoamiCmd)

	authRegisterCmd.Flags().StringVar(&registerUsername, "username", "", "Username (prompted when empty)")
	authRegisterCmd.Flags().StringVar(&registerEmail, "email", "", "Email address (prompted when empty)")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.session.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to remove stored credential: %w", err)
		}
		printf(cmd, "Signed out.\n")
		return nil
	})
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		cred, err := a.store.Get(ctx)
		if err != nil {
			return err
		}
		if cred == nil {
			return &cli.AuthRequiredError{Endpoint: a.cfg.APIBaseURL}
		}

		var resp *gateway.AuthResponse
		err = cli.WithSpinner(quiet, "Refreshing session...", func() error {
			resp, err = a.gateway.Refresh(ctx, cred.RefreshToken())
			return err
		})
		if err != nil {
			if gateway.StatusOf(err) == http.StatusUnauthorized {
				return &cli.AuthExpiredError{Endpoint: a.cfg.APIBaseURL}
			}
			return err
		}

		if err := a.store.Set(ctx, resp.Credential()); err != nil {
			return fmt.Errorf("failed to store refreshed credential: %w", err)
		}
		logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "success", UserID: resp.Credential().User.ID, Reason: "manual"})
		printf(cmd, "Session refreshed.\n")
		return nil
	})
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		state, err := a.requireSession(ctx)
		if err != nil {
			return err
		}
		return printUser(cmd, state.User)
	})
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if signedIn, err := a.alreadySignedIn(cmd); err != nil || signedIn {
			return err
		}

		prompter := cli.NewPrompter()
		username, err := valueOrPrompt(prompter, registerUsername, "Username")
		if err != nil {
			return err
		}
		email, err := valueOrPrompt(prompter, registerEmail, "Email")
		if err != nil {
			return err
		}
		password, err := prompter.Password("Password")
		if err != nil {
			return err
		}
		confirm, err := prompter.Password("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		return signIn(cmd, a, func(ctx context.Context) error {
			return a.session.Register(ctx, username, email, password)
		})
	})
}

// signIn runs a login-like operation and reports the signed-in user.
func signIn(cmd *cobra.Command, a *app, do func(ctx context.Context) error) error {
	ctx := cmd.Context()
	err := cli.WithSpinner(quiet, "Signing in...", func() error { return do(ctx) })
	if err != nil {
		var reqErr *gateway.RequestError
		if errors.As(err, &reqErr) && !reqErr.IsNetwork() {
			return &cli.AuthFailedError{Endpoint: a.cfg.APIBaseURL, Reason: errors.New(reqErr.Message)}
		}
		return err
	}

	if u := a.session.Snapshot().User; u != nil {
		printf(cmd, "Signed in as %s (%s).\n", u.Name(), u.Username)
	}
	return nil
}

func valueOrPrompt(p *cli.Prompter, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := p.Line(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	return v, nil
}

func printUser(cmd *cobra.Command, u *credential.User) error {
	agent := "no"
	if u.IsAgent {
		agent = "yes"
	}
	p := printer(cmd)
	if p.Format() != cli.OutputFormatTable {
		return p.Print(u, nil, nil)
	}
	p.KeyValues([][2]string{
		{"ID", u.ID},
		{"Username", u.Username},
		{"Display name", u.DisplayName},
		{"Email", u.Email},
		{"Agent", agent},
	})
	return nil
}
