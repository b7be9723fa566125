// Package cli provides command-line helpers for the moltyverse commands.
//
// It covers the pieces every command needs:
//   - output in table, JSON or YAML form (Printer)
//   - a progress spinner around slow calls (WithSpinner)
//   - hidden password prompts (PromptPassword)
//   - CLI error types that the root command maps to exit codes
//     (AuthRequiredError, AuthExpiredError, AuthFailedError, ConnectionError)
package cli
