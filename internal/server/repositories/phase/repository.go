package phase

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

// Repository reads and mutates the election-phase singleton. Get is called
// fresh on every cast attempt; callers must not cache its result across
// requests.
type Repository interface {
	Get(ctx context.Context) (*models.Phase, error)

	// Set flips one switch. Opening a phase closes the other in the same
	// UPDATE statement, so both-open is never observable.
	Set(ctx context.Context, key models.PhaseKey, open bool) (*models.Phase, error)
}
