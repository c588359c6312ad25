// Package admin covers the electoral-committee surface: login, phase
// switching, and the audit trail behind every administrative action.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/dbx"
	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/auth"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/repositories/repomanager"
)

const (
	ActionPhaseChange  = "phase_change"
	ActionLedgerExport = "ledger_export"
)

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	adminName     string
	passwordHash  []byte
	secretKey     []byte
	tokenValidity time.Duration
}

func NewService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	adminName string,
	passwordHash string,
	secretKey []byte,
	tokenValidity time.Duration,
	logger logging.Logger,
) *Service {
	return &Service{
		db:            db,
		repomanager:   m,
		adminName:     adminName,
		passwordHash:  []byte(passwordHash),
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
		logger:        logger.With("module", "admin"),
	}
}

// Login checks the credentials against the configured admin account and
// issues a session token. Name and password failures are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {

	if name != s.adminName {
		return "", common.ErrorUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(name, s.secretKey, s.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}

	s.logger.Info(ctx, "admin logged in", "admin", name)

	return token, nil
}

// VerifyToken resolves the admin name from a session token.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	name, err := auth.GetAdminFromToken(tokenString, s.secretKey)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	return name, nil
}

// SetPhase flips one election switch and records the change in the audit
// log. The switch and its audit row commit in one transaction; a phase
// change without an audit trail is never observable.
func (s *Service) SetPhase(ctx context.Context, adminName string, key models.PhaseKey, open bool) (*models.Phase, error) {

	details, err := json.Marshal(map[string]any{"phase": key, "open": open})
	if err != nil {
		return nil, fmt.Errorf("audit details: %w", err)
	}

	var updated *models.Phase
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		updated, err = s.repomanager.Phase(tx).Set(ctx, key, open)
		if err != nil {
			return err
		}

		entry := &models.AuditEntry{
			ID:        uuid.NewString(),
			AdminName: adminName,
			Action:    ActionPhaseChange,
			Details:   details,
		}
		if err := s.repomanager.Audit(tx).Insert(ctx, entry); err != nil {
			return fmt.Errorf("audit insert: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "phase changed", "admin", adminName, "phase", string(key), "open", open)

	return updated, nil
}

// GetPhase returns the current switches.
func (s *Service) GetPhase(ctx context.Context) (*models.Phase, error) {
	return s.repomanager.Phase(s.db).Get(ctx)
}

// RecordAction appends an arbitrary administrative action to the audit log.
func (s *Service) RecordAction(ctx context.Context, adminName, action string, details any) error {

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("audit details: %w", err)
	}

	return s.repomanager.Audit(s.db).Insert(ctx, &models.AuditEntry{
		ID:        uuid.NewString(),
		AdminName: adminName,
		Action:    action,
		Details:   payload,
	})
}

// Audit returns the most recent audit entries, newest first.
func (s *Service) Audit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repomanager.Audit(s.db).List(ctx, limit)
}
