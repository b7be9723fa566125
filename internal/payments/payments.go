// Package payments starts hosted checkout sessions with the payments provider.
package payments

import (
	"context"
	"errors"
	"net/http"

	"moltyverse/internal/gateway"
	"moltyverse/internal/navigation"
	"moltyverse/pkg/logging"
)

// CheckoutEndpoint creates a hosted checkout session.
const CheckoutEndpoint = "/api/create-checkout-session"

// CheckoutRequest describes the subscription being bought.
type CheckoutRequest struct {
	PriceID    string `json:"priceId"`
	UserID     string `json:"userId"`
	Plan       string `json:"plan,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

// CheckoutSession is the provider's hosted checkout.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Client talks to the payments endpoints through the gateway.
type Client struct {
	gateway *gateway.Client
	nav     navigation.Navigator
}

// New creates a payments client. nav receives the hosted checkout URL.
func New(gw *gateway.Client, nav navigation.Navigator) *Client {
	return &Client{gateway: gw, nav: nav}
}

// CreateCheckoutSession asks the backend for a hosted checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user ID is required")
	}

	sess, err := gateway.Do[*CheckoutSession](ctx, c.gateway, CheckoutEndpoint, gateway.Options{
		Method: http.MethodPost,
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.URL == "" {
		return nil, &gateway.RequestError{Status: http.StatusOK, Message: "Checkout session has no URL"}
	}
	return sess, nil
}

// Checkout creates a session and navigates to its hosted page.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	sess, err := c.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, err
	}
	logging.Info("Payments", "Redirecting to checkout session %s", sess.SessionID)
	c.nav.Assign(sess.URL)
	return sess, nil
}
