package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cetpredict/internal/config"
	"cetpredict/internal/connectors"
	gmailconnector "cetpredict/internal/connectors/gmail"
	imapconnector "cetpredict/internal/connectors/imap"
	"cetpredict/internal/pipeline"
	"cetpredict/internal/storage"
)

// Service polls the configured mailbox for admission-board circulars and
// ingests their table attachments. It only writes to storage; a serving
// process picks up new rounds by rebuilding its index from scratch.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.ListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.ListenerLabel, s.cfg.ListenerFetchMax)
	if err != nil {
		return err
	}

	ingest := pipeline.NewIngestService(s.db, s.cfg)
	processed, records, err := ingest.ProcessCirculars(s.cfg.ListenerBatch, provider)
	if err != nil {
		return err
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d skipped=%d processed=%d records=%d\n",
		provider, fetchResult.Fetched, fetchResult.Stored, fetchResult.Skipped, processed, records)
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
