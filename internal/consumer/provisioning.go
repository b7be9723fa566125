package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moltyverse/internal/backend"
	"moltyverse/pkg/logging"
)

const deploymentGetPath = "deployments:get"

// DefaultPollInterval is how often WaitReady asks for the deployment status.
const DefaultPollInterval = 2 * time.Second

// Deployment statuses.
const (
	DeploymentPending = "pending"
	DeploymentReady   = "ready"
	DeploymentFailed  = "failed"
)

// ErrDeploymentFailed is returned when provisioning ends in the failed state.
var ErrDeploymentFailed = errors.New("deployment failed")

// Deployment is a molty deployed to an external platform.
type Deployment struct {
	ID       string `json:"_id"`
	MoltyID  string `json:"moltyId"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Provisioning follows deployments until they settle.
type Provisioning struct {
	backend  *backend.Client
	interval time.Duration
}

// NewProvisioning creates a Provisioning consumer. A zero interval uses
// DefaultPollInterval.
func NewProvisioning(b *backend.Client, interval time.Duration) *Provisioning {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Provisioning{backend: b, interval: interval}
}

// WaitReady polls the deployment until it is ready or failed, or ctx ends.
func (p *Provisioning) WaitReady(ctx context.Context, deploymentID string) (*Deployment, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		d, err := backend.Decode[*Deployment](ctx, p.backend, backend.KindQuery, deploymentGetPath, map[string]any{"id": deploymentID})
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("deployment %s not found", deploymentID)
		}

		switch d.Status {
		case DeploymentReady:
			return d, nil
		case DeploymentFailed:
			if d.Error != "" {
				return d, fmt.Errorf("%w: %s", ErrDeploymentFailed, d.Error)
			}
			return d, ErrDeploymentFailed
		}
		logging.Debug("Provisioning", "Deployment %s is %s, waiting", deploymentID, d.Status)

		select {
		case <-ctx.Done():
			return d, ctx.Err()
		case <-ticker.C:
		}
	}
}
