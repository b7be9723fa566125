package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"moltyverse/internal/backend"
)

func newCallCmd() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call",
		Short: "Call a backend function directly",
		Long: `Call a query, mutation or action on the MoltyVerse backend and print
its JSON result.

Examples:
  moltyverse call query moltys:list
  moltyverse call mutation moltys:remove --args '{"id":"m1"}'`,
	}

	for _, kind := range []backend.Kind{backend.KindQuery, backend.KindMutation, backend.KindAction} {
		callCmd.AddCommand(newCallKindCmd(kind))
	}
	return callCmd
}

func newCallKindCmd(kind backend.Kind) *cobra.Command {
	var rawArgs string
	c := &cobra.Command{
		Use:   string(kind) + " PATH",
		Short: fmt.Sprintf("Run a backend %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fnArgs map[string]any
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &fnArgs); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if _, err := a.requireSession(ctx); err != nil {
					return err
				}
				value, err := a.backend.Call(ctx, kind, args[0], fnArgs)
				if err != nil {
					return err
				}

				var decoded any
				if len(value) > 0 {
					if err := json.Unmarshal(value, &decoded); err != nil {
						return err
					}
				}
				if outputFormat == "table" {
					outputFormat = "json"
				}
				return printer(cmd).Print(decoded, nil, nil)
			})
		},
	}
	c.Flags().StringVar(&rawArgs, "args", "", "Function arguments as a JSON object")
	return c
}
