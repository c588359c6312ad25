// Package server initializes and runs the election service: it opens the
// database, applies migrations, wires repositories into services, and
// serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/admin"
	"github.com/cdsvote/cdsvote/internal/server/config"
	"github.com/cdsvote/cdsvote/internal/server/eligibility"
	"github.com/cdsvote/cdsvote/internal/server/export"
	"github.com/cdsvote/cdsvote/internal/server/httpapi"
	"github.com/cdsvote/cdsvote/internal/server/repositories/repomanager"
	"github.com/cdsvote/cdsvote/internal/server/tally"
	"github.com/cdsvote/cdsvote/internal/server/voting"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	membersRepo := rm.Members(db)
	positionsRepo := rm.Positions(db)
	candidatesRepo := rm.Candidates(db)
	votesRepo := rm.Votes(db)
	phaseRepo := rm.Phase(db)

	broker := tally.NewBroker()

	resolver := eligibility.NewService(membersRepo)
	votingSvc := voting.NewService(phaseRepo, resolver, positionsRepo, candidatesRepo, votesRepo, broker, logger)
	tallySvc := tally.NewService(votesRepo, membersRepo, logger)
	adminSvc := admin.NewService(
		db, rm,
		c.AdminName, c.AdminPasswordHash,
		[]byte(c.SecretKey), c.AdminTokenValidityDuration,
		logger,
	)
	exportSvc := export.NewService(votesRepo, export.NewS3Store(c), adminSvc, logger)

	server := httpapi.NewServer(c.EndpointAddrHTTP, votingSvc, tallySvc, adminSvc, exportSvc, broker, logger)

	return &App{config: c, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting election service")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
