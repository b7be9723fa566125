package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/consumer"
	"moltyverse/pkg/strings"
)

func newMoltysCmd() *cobra.Command {
	moltysCmd := &cobra.Command{
		Use:     "moltys",
		Aliases: []string{"molty"},
		Short:   "Manage your Moltys",
	}

	moltysCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your Moltys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if _, err := a.requireSession(ctx); err != nil {
					return err
				}
				moltys := consumer.NewMoltys(a.backend).List(ctx)

				rows := make([][]string, 0, len(moltys))
				for _, m := range moltys {
					rows = append(rows, []string{m.ID, m.Name, strings.Preview(m.Description, 40), m.Model, m.Status, formatCreated(m.CreatedAt)})
				}
				return printer(cmd).Print(moltys, []string{"ID", "NAME", "DESCRIPTION", "MODEL", "STATUS", "CREATED"}, rows)
			})
		},
	})

	var input consumer.MoltyInput
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a Molty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input.Name = args[0]
			return withApp(ctx, func(a *app) error {
				if _, err := a.requireSession(ctx); err != nil {
					return err
				}
				var id string
				err := cli.WithSpinner(quiet, "Creating Molty...", func() error {
					var err error
					id, err = consumer.NewMoltys(a.backend).Create(ctx, input)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&input.Description, "description", "", "Short description")
	createCmd.Flags().StringVar(&input.Personality, "personality", "", "Personality prompt")
	createCmd.Flags().StringVar(&input.Model, "model", "", "Model to use")
	moltysCmd.AddCommand(createCmd)

	moltysCmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a Molty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if _, err := a.requireSession(ctx); err != nil {
					return err
				}
				if err := consumer.NewMoltys(a.backend).Delete(ctx, args[0]); err != nil {
					return err
				}
				printf(cmd, "Deleted %s.\n", args[0])
				return nil
			})
		},
	})

	var pollInterval time.Duration
	waitCmd := &cobra.Command{
		Use:   "wait DEPLOYMENT_ID",
		Short: "Wait until a Molty deployment is ready",
		Long: `Poll a deployment until it is ready or has failed.

Signing out, here or from another terminal, stops the wait.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				ctx, err := a.guardSession(ctx)
				if err != nil {
					return err
				}
				var d *consumer.Deployment
				err = cli.WithSpinner(quiet, "Waiting for deployment...", func() error {
					var err error
					d, err = consumer.NewProvisioning(a.backend, pollInterval).WaitReady(ctx, args[0])
					return err
				})
				if err != nil {
					return causeOf(ctx, err)
				}
				printf(cmd, "Deployment %s on %s is %s.\n", d.ID, d.Platform, d.Status)
				return nil
			})
		},
	}
	waitCmd.Flags().DurationVar(&pollInterval, "interval", consumer.DefaultPollInterval, "Polling interval")
	moltysCmd.AddCommand(waitCmd)

	return moltysCmd
}

func formatCreated(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
