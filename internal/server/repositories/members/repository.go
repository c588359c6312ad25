package members

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

// Repository reads the member directory. The voting core never writes it.
type Repository interface {
	GetByStateCode(ctx context.Context, stateCode string) (*models.Member, error)
	CountEligible(ctx context.Context) (int64, error)
}
