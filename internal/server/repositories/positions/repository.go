package positions

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

type Repository interface {
	// ListActive returns active positions in election order.
	ListActive(ctx context.Context) ([]*models.Position, error)
}
