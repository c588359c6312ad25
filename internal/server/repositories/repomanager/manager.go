package repomanager

import (
	"context"
	"database/sql"

	"github.com/cdsvote/cdsvote/internal/dbx"
	"github.com/cdsvote/cdsvote/internal/server/repositories/audit"
	"github.com/cdsvote/cdsvote/internal/server/repositories/candidates"
	"github.com/cdsvote/cdsvote/internal/server/repositories/members"
	"github.com/cdsvote/cdsvote/internal/server/repositories/phase"
	"github.com/cdsvote/cdsvote/internal/server/repositories/positions"
	"github.com/cdsvote/cdsvote/internal/server/repositories/votes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Members(db dbx.DBTX) members.Repository
	Positions(db dbx.DBTX) positions.Repository
	Candidates(db dbx.DBTX) candidates.Repository
	Votes(db dbx.DBTX) votes.Repository
	Phase(db dbx.DBTX) phase.Repository
	Audit(db dbx.DBTX) audit.Repository
}
