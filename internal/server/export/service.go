// Package export writes ledger snapshots to object storage as CSV and hands
// out short-lived download links.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/admin"
	"github.com/cdsvote/cdsvote/internal/server/repositories/votes"
)

const presignValidity = 15 * time.Minute

// ObjectStore is the slice of object storage the exporter needs; satisfied
// by *S3Store.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Recorder appends the export to the audit trail; satisfied by
// *admin.Service.
type Recorder interface {
	RecordAction(ctx context.Context, adminName, action string, details any) error
}

// Result describes one finished export.
type Result struct {
	Key         string
	DownloadURL string
	Rows        int
}

type Service struct {
	votes    votes.Repository
	store    ObjectStore
	recorder Recorder
	logger   logging.Logger
}

func NewService(votesRepo votes.Repository, store ObjectStore, recorder Recorder, logger logging.Logger) *Service {
	return &Service{
		votes:    votesRepo,
		store:    store,
		recorder: recorder,
		logger:   logger.With("module", "export"),
	}
}

func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%v.csv", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Export dumps the full ledger, oldest row first, uploads it, and returns a
// presigned download link. The CSV carries anonymized tokens only.
func (s *Service) Export(ctx context.Context, adminName string) (*Result, error) {

	rows, err := s.votes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger read: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"voter_token", "position_id", "candidate_id", "created_at"}); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, v := range rows {
		record := []string{v.VoterToken, v.PositionID, v.CandidateID, v.CreatedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	key := storageKey()
	if err := s.store.Put(ctx, key, "text/csv", buf.Bytes()); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	if err := s.recorder.RecordAction(ctx, adminName, admin.ActionLedgerExport, map[string]any{
		"key":  key,
		"rows": len(rows),
	}); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	url, err := s.store.PresignGet(ctx, key, presignValidity)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}

	s.logger.Info(ctx, "ledger exported", "admin", adminName, "key", key, "rows", len(rows))

	return &Result{Key: key, DownloadURL: url, Rows: len(rows)}, nil
}
