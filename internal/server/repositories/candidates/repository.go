package candidates

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

type Repository interface {
	// GetApproved returns the candidate only if it is approved and its
	// position is active; anything else is common.ErrorNotFound.
	GetApproved(ctx context.Context, id string) (*models.Candidate, error)

	// ListApproved returns approved candidates on active positions,
	// earliest-approved first within each position.
	ListApproved(ctx context.Context) ([]*models.Candidate, error)
}
