package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/oauth"
	"moltyverse/internal/session"
)

// Login-specific flags
var (
	loginBrowser   bool
	loginUsername  string
	loginNoBrowser bool
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to MoltyVerse",
	Long: `Sign in with a username and password, or with your identity provider.

With --browser a local callback server is started and the provider's sign-in
page is opened. After you sign in, the provider redirects back with a
one-time token that is exchanged for a session.

Examples:
  moltyverse auth login                      # Prompt for username and password
  moltyverse auth login --username ada       # Prompt for the password only
  moltyverse auth login --browser            # Sign in through the browser
  moltyverse auth login --browser --no-open  # Print the sign-in URL instead`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginBrowser, "browser", false, "Sign in with your identity provider")
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-open", false, "Do not open a browser, print the URL instead")
	authLoginCmd.Flags().StringVar(&loginUsername, "username", "", "Username (prompted when empty)")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withApp(ctx, func(a *app) error {
		if signedIn, err := a.alreadySignedIn(cmd); err != nil || signedIn {
			return err
		}

		if loginBrowser {
			return loginWithBrowser(cmd, a)
		}

		prompter := cli.NewPrompter()
		username, err := valueOrPrompt(prompter, loginUsername, "Username")
		if err != nil {
			return err
		}
		password, err := prompter.Password("Password")
		if err != nil {
			return err
		}
		return signIn(cmd, a, func(ctx context.Context) error {
			return a.session.Login(ctx, username, password)
		})
	})
}

// loginWithBrowser receives the provider redirect on a loopback server and
// lets the session resolve it like a page load with a callback URL.
func loginWithBrowser(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), oauth.CallbackTimeout)
	defer cancel()

	server := oauth.NewCallbackServer(a.cfg.OAuth.CallbackPort, func(ctx context.Context, callback *url.URL) error {
		a.location.Replace(callback.RequestURI())
		if err := session.Wait(ctx, a.session.Initialize(ctx)); err != nil {
			return err
		}
		if !a.session.Snapshot().Authenticated() {
			return errors.New("the one-time token was not accepted")
		}
		return nil
	})

	redirectURI, err := server.Start(ctx)
	if err != nil {
		return err
	}
	defer server.Stop()

	startURL, err := oauth.StartURL(a.cfg.APIBaseURL, redirectURI)
	if err != nil {
		return err
	}

	if loginNoBrowser {
		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in:\n  %s\n", startURL)
	} else {
		printf(cmd, "Opening your browser to sign in...\n")
		if err := oauth.OpenBrowser(startURL); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Could not open a browser. Open this URL to sign in:\n  %s\n", startURL)
		}
	}

	if err := server.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &cli.AuthFailedError{Endpoint: a.cfg.APIBaseURL, Reason: errors.New("timed out waiting for the sign-in redirect")}
		}
		return &cli.AuthFailedError{Endpoint: a.cfg.APIBaseURL, Reason: err}
	}

	if u := a.session.Snapshot().User; u != nil {
		printf(cmd, "Signed in as %s (%s).\n", u.Name(), u.Username)
	}
	return nil
}
