package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"moltyverse/internal/cli"
	"moltyverse/internal/oauth"
	"moltyverse/internal/payments"
)

func newBillingCmd() *cobra.Command {
	billingCmd := &cobra.Command{
		Use:   "billing",
		Short: "Manage your subscription",
	}

	var req payments.CheckoutRequest
	var noOpen bool
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start a hosted checkout for a subscription plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				state, err := a.requireSession(ctx)
				if err != nil {
					return err
				}
				req.UserID = state.User.ID
				if req.SuccessURL == "" {
					req.SuccessURL = appURL(a, a.cfg.Routes.Dashboard, "checkout", "success")
				}
				if req.CancelURL == "" {
					req.CancelURL = appURL(a, a.cfg.Routes.Dashboard, "checkout", "cancelled")
				}

				var sess *payments.CheckoutSession
				err = cli.WithSpinner(quiet, "Creating checkout session...", func() error {
					var err error
					sess, err = payments.New(a.gateway, a.location).Checkout(ctx, req)
					return err
				})
				if err != nil {
					return err
				}

				if !noOpen {
					if err := oauth.OpenBrowser(sess.URL); err == nil {
						printf(cmd, "Opened checkout in your browser.\n")
						return nil
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Complete your purchase at:\n  %s\n", sess.URL)
				return nil
			})
		},
	}
	checkoutCmd.Flags().StringVar(&req.PriceID, "price", "", "Price ID of the plan (required)")
	checkoutCmd.Flags().StringVar(&req.Plan, "plan", "", "Plan name")
	checkoutCmd.Flags().StringVar(&req.SuccessURL, "success-url", "", "Where to return after payment")
	checkoutCmd.Flags().StringVar(&req.CancelURL, "cancel-url", "", "Where to return when cancelled")
	checkoutCmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the checkout URL instead of opening it")
	_ = checkoutCmd.MarkFlagRequired("price")
	billingCmd.AddCommand(checkoutCmd)

	return billingCmd
}

func appURL(a *app, path, key, value string) string {
	u, err := url.Parse(a.cfg.AppBaseURL)
	if err != nil {
		return ""
	}
	u = u.JoinPath(path)
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
