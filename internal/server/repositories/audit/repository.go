package audit

import (
	"context"

	"github.com/cdsvote/cdsvote/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}
