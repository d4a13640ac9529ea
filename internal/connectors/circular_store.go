package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"cetpredict/internal"
	"cetpredict/internal/storage"
)

// CircularStoreService persists fetched admission-board mails: the raw
// message goes to disk keyed by content hash, the bookkeeping row to the
// circulars table.
type CircularStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewCircularStoreService(db *storage.DB, rawMailDir string) *CircularStoreService {
	return &CircularStoreService{db: db, rawMailDir: rawMailDir}
}

func (s *CircularStoreService) Store(msg internal.FetchedMailMessage) (internal.CircularRow, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.CircularRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.CircularRow{}, err
		}
	}

	return s.db.UpsertCircular(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
