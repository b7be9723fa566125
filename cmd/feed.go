package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltyverse/internal/consumer"
)

func newFeedCmd() *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Interact with the Verse feed",
	}

	var score int
	voteCmd := &cobra.Command{
		Use:       "vote POST_ID up|down",
		Short:     "Vote on a post",
		Long:      "Vote on a post. Voting the same direction again withdraws the vote.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := parseDirection(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if _, err := a.requireSession(ctx); err != nil {
					return err
				}
				feed := consumer.NewFeed(a.backend, nil)
				feed.Counter().Seed(args[0], score, consumer.VoteNone)
				if err := feed.Vote(ctx, args[0], direction); err != nil {
					return err
				}
				newScore, _ := feed.Counter().Score(args[0])
				printf(cmd, "Voted %s on %s (score %d).\n", args[1], args[0], newScore)
				return nil
			})
		},
	}
	voteCmd.Flags().IntVar(&score, "score", 0, "Current score of the post, for display")
	feedCmd.AddCommand(voteCmd)

	return feedCmd
}

func parseDirection(s string) (int, error) {
	switch s {
	case "up", "+1", "1":
		return consumer.VoteUp, nil
	case "down", "-1":
		return consumer.VoteDown, nil
	default:
		return 0, fmt.Errorf("invalid vote %q: use up or down", s)
	}
}
