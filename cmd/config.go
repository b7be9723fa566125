package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltyverse/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the moltyverse configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			p := printer(cmd)
			if p.Format() != "table" {
				return p.Print(cfg, nil, nil)
			}
			p.KeyValues([][2]string{
				{"apiBaseURL", cfg.APIBaseURL},
				{"appBaseURL", cfg.AppBaseURL},
				{"storage.backend", cfg.Storage.Backend},
				{"storage.dir", cfg.Storage.Dir},
				{"oauth.callbackPort", fmt.Sprint(cfg.OAuth.CallbackPort)},
				{"oauth.redirectDelay", cfg.OAuth.RedirectDelay.String()},
				{"oauth.markerTTL", cfg.OAuth.MarkerTTL.String()},
				{"oauth.redisAddr", cfg.OAuth.RedisAddr},
				{"http.timeout", cfg.HTTP.Timeout.String()},
				{"routes.login", cfg.Routes.Login},
				{"routes.dashboard", cfg.Routes.Dashboard},
				{"update.repository", cfg.Update.Repository},
			})
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "List the environment variables moltyverse reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := config.EnvDescription()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	})

	return configCmd
}
