// Package httpapi exposes the election service over HTTP: the voter-facing
// JSON endpoints, the live tally stream, and the authenticated admin surface.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/export"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/tally"
	"github.com/cdsvote/cdsvote/internal/server/voting"
)

const shutdownTimeout = 5 * time.Second

// The transport depends on narrow slices of the services so tests can
// substitute fakes.

type votingService interface {
	VerifyVoter(ctx context.Context, rawCredential string) (*voting.Verification, error)
	CastVote(ctx context.Context, rawCredential, positionID, candidateID string) (*voting.CastResult, error)
	Ballot(ctx context.Context) ([]voting.BallotPosition, error)
	Phase(ctx context.Context) (*models.Phase, error)
}

type tallyService interface {
	Build(ctx context.Context, positionID string) (*tally.Snapshot, error)
	Turnout(ctx context.Context) (castVotes, eligibleVoters int64, err error)
}

type adminService interface {
	Login(ctx context.Context, name, password string) (string, error)
	VerifyToken(tokenString string) (string, error)
	SetPhase(ctx context.Context, adminName string, key models.PhaseKey, open bool) (*models.Phase, error)
	Audit(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type exportService interface {
	Export(ctx context.Context, adminName string) (*export.Result, error)
}

type subscriber interface {
	Subscribe() (<-chan struct{}, func())
}

type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

func NewServer(
	addr string,
	votingSvc votingService,
	tallySvc tallyService,
	adminSvc adminService,
	exportSvc exportService,
	notifications subscriber,
	logger logging.Logger,
) *Server {
	h := &handler{
		voting: votingSvc,
		tally:  tallySvc,
		admin:  adminSvc,
		export: exportSvc,
		subs:   notifications,
		logger: logger.With("module", "httpapi"),
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h.routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: h.logger,
	}
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	serveErr := make(chan error, 1)
	s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
