package cmd

import (
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/session"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long: `Show whether a credential is stored and whether the API still accepts it.

The stored user is verified against the API; a rejected credential is
removed.`,
	RunE: runAuthStatus,
}

type authStatus struct {
	Endpoint      string `json:"endpoint" yaml:"endpoint"`
	Storage       string `json:"storage" yaml:"storage"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	UserID        string `json:"userId,omitempty" yaml:"userId,omitempty"`
	Username      string `json:"username,omitempty" yaml:"username,omitempty"`
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		var state session.State
		err := cli.WithSpinner(quiet, "Checking session...", func() error {
			if err := session.Wait(ctx, a.session.Initialize(ctx)); err != nil {
				return err
			}
			state = a.session.Snapshot()
			return nil
		})
		if err != nil {
			return err
		}

		status := authStatus{
			Endpoint:      a.cfg.APIBaseURL,
			Storage:       a.cfg.Storage.Backend,
			Authenticated: state.Authenticated(),
		}
		if state.User != nil {
			status.UserID = state.User.ID
			status.Username = state.User.Username
		}

		p := printer(cmd)
		if p.Format() != cli.OutputFormatTable {
			return p.Print(status, nil, nil)
		}

		stateText := text.FgRed.Sprint("Not signed in")
		if status.Authenticated {
			stateText = text.FgGreen.Sprint("Signed in")
		}
		p.KeyValues([][2]string{
			{"Endpoint", status.Endpoint},
			{"Storage", status.Storage},
			{"Status", stateText},
			{"User", status.Username},
		})
		return nil
	})
}
