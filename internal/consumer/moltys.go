package consumer

import (
	"context"
	"errors"

	"moltyverse/internal/backend"
	"moltyverse/pkg/logging"
)

// Backend function paths used by Moltys.
const (
	moltysListPath   = "moltys:list"
	moltysCreatePath = "moltys:create"
	moltysRemovePath = "moltys:remove"
)

// Molty is an AI-agent persona owned by the user.
type Molty struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
	Model       string `json:"model,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedAt   int64  `json:"_creationTime,omitempty"`
}

// MoltyInput is what a user provides when creating a molty.
type MoltyInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Moltys manages the user's moltys.
type Moltys struct {
	backend *backend.Client
}

// NewMoltys creates a Moltys consumer.
func NewMoltys(b *backend.Client) *Moltys {
	return &Moltys{backend: b}
}

// List returns the user's moltys. Failures are logged and yield an empty list.
func (m *Moltys) List(ctx context.Context) []Molty {
	moltys, err := backend.Decode[[]Molty](ctx, m.backend, backend.KindQuery, moltysListPath, nil)
	if err != nil {
		logging.Warn("Moltys", "Failed to load moltys: %v", err)
		return []Molty{}
	}
	if moltys == nil {
		return []Molty{}
	}
	return moltys
}

// Create creates a molty and returns its id.
func (m *Moltys) Create(ctx context.Context, in MoltyInput) (string, error) {
	if in.Name == "" {
		return "", errors.New("molty name is required")
	}
	return backend.Decode[string](ctx, m.backend, backend.KindMutation, moltysCreatePath, in)
}

// Delete removes a molty.
func (m *Moltys) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("molty id is required")
	}
	_, err := m.backend.Mutation(ctx, moltysRemovePath, map[string]any{"id": id})
	return err
}
