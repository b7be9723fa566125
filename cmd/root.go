package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/config"
	"moltyverse/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no valid session is available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates a sign-in attempt was rejected.
	ExitCodeAuthFailed = 3
)

// Global flags shared by every command.
var (
	configPath   string
	logLevel     string
	outputFormat string
	quiet        bool
)

// rootCmd represents the base command for the moltyverse application.
var rootCmd = &cobra.Command{
	Use:   "moltyverse",
	Short: "Create, chat with and deploy your Moltys",
	Long: `moltyverse is the command-line client for MoltyVerse.

It signs you in, keeps your session fresh, and gives you access to your
Moltys, the Verse feed, your messages and your subscription.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.LevelWarn
		if logLevel != "" {
			level = logging.ParseLevel(logLevel)
		}
		logging.InitForCLI(level, os.Stderr)
		return cli.ValidateOutputFormat(outputFormat)
	},
}

// SetVersion sets the version for the root command.
// It is called from main to inject the version set at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "moltyverse version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// printf writes progress output unless --quiet is set.
func printf(cmd *cobra.Command, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

func printer(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.OutOrStdout(), cli.OutputFormat(outputFormat))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env: MOLTYVERSE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(cli.OutputFormatTable), "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMoltysCmd())
	rootCmd.AddCommand(newFeedCmd())
	rootCmd.AddCommand(newMessagesCmd())
	rootCmd.AddCommand(newBillingCmd())
	rootCmd.AddCommand(newCallCmd())
}
