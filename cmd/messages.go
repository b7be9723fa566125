package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltyverse/internal/consumer"
	"moltyverse/pkg/strings"
)

func newMessagesCmd() *cobra.Command {
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "Read your direct messages",
	}

	messagesCmd.AddCommand(&cobra.Command{
		Use:   "threads",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				state, err := a.requireSession(ctx)
				if err != nil {
					return err
				}
				threads, err := consumer.NewMessages(a.backend).Threads(ctx, state.User.ID)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(threads))
				for _, t := range threads {
					last := t.Last()
					rows = append(rows, []string{t.PartnerID, fmt.Sprint(len(t.Messages)), strings.Preview(last.Body, strings.DefaultPreviewLen), formatCreated(last.CreatedAt)})
				}
				return printer(cmd).Print(threads, []string{"WITH", "MESSAGES", "LAST MESSAGE", "AT"}, rows)
			})
		},
	})

	return messagesCmd
}

