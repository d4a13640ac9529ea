package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cetpredict/internal"
	"cetpredict/internal/config"
	"cetpredict/internal/storage"
	"cetpredict/internal/util"
)

type IngestService struct {
	db  *storage.DB
	cfg config.Config
}

func NewIngestService(db *storage.DB, cfg config.Config) *IngestService {
	return &IngestService{db: db, cfg: cfg}
}

type IngestResult struct {
	SourceID int
	Tables   int
	Records  int
}

// IngestFile normalizes one admission list and replaces its records in
// storage. Re-running over an unchanged file is a no-op record-wise: the
// source's rows are swapped for an identical set.
func (s *IngestService) IngestFile(path, course string, headerRows int) (IngestResult, error) {
	start := time.Now()

	if strings.TrimSpace(course) == "" {
		course = util.CourseFromFilename(path)
	}
	if course == "" {
		return IngestResult{}, fmt.Errorf("cannot derive course code from %s", path)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return IngestResult{}, err
	}

	tables, err := ExtractFile(path, headerRows)
	if err != nil {
		return IngestResult{}, err
	}

	records := make([]internal.CutoffRecord, 0)
	shape := internal.TableShape("")
	for _, table := range tables {
		normalized, tableShape, err := Normalize(table, course)
		if err != nil {
			return IngestResult{}, err
		}
		if shape == "" {
			shape = tableShape
		}
		records = append(records, normalized...)
	}

	status := "ingested"
	if len(records) == 0 {
		status = "empty"
	}

	hashBytes := sha256.Sum256(blob)
	src, err := s.db.UpsertSource(filepath.Base(path), course, string(shape), hex.EncodeToString(hashBytes[:]), path, status)
	if err != nil {
		return IngestResult{}, err
	}
	if err := s.db.ReplaceCutoffs(src.ID, records); err != nil {
		return IngestResult{}, err
	}

	_ = s.db.InsertRun(traceID(), src.ID,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"tables": len(tables), "records": len(records)})

	if len(records) == 0 {
		fmt.Printf("warning: %s normalized to zero records (course=%s)\n", path, course)
	}

	return IngestResult{SourceID: src.ID, Tables: len(tables), Records: len(records)}, nil
}

// IngestDir walks a directory of source files. A malformed source fails that
// one source; the rest of the directory still goes through.
func (s *IngestService) IngestDir(dir string, headerRows int) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}

	files, total := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx", ".xls", ".pdf", ".html", ".htm":
		default:
			continue
		}

		res, err := s.IngestFile(filepath.Join(dir, entry.Name()), "", headerRows)
		if err != nil {
			var malformed MalformedTableError
			if errors.As(err, &malformed) {
				fmt.Printf("skipping %s: %v\n", entry.Name(), err)
				continue
			}
			return files, total, err
		}
		files++
		total += res.Records
	}

	return files, total, nil
}

// ProcessCirculars ingests the table attachments of fetched admission-board
// mails. Each attachment is written next to the other cutoff sources so a
// later full re-ingest sees it as an ordinary file.
func (s *IngestService) ProcessCirculars(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListCircularsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}

	processed, records := 0, 0
	for _, circular := range pending {
		if provider != "" && circular.Provider != provider {
			continue
		}
		count, err := s.processCircular(circular)
		if err != nil {
			return processed, records, err
		}
		processed++
		records += count
	}
	return processed, records, nil
}

func (s *IngestService) ProcessCircularByMessageID(provider, messageID string) (int, error) {
	circular, err := s.db.MustCircularByProviderMessageID(provider, messageID)
	if err != nil {
		return 0, err
	}
	return s.processCircular(circular)
}

func (s *IngestService) processCircular(circular internal.CircularRow) (int, error) {
	raw, err := os.ReadFile(circular.RawRef)
	if err != nil {
		return 0, err
	}

	attachments, _, err := ExtractAttachments(raw)
	if err != nil {
		return 0, err
	}

	if len(attachments) == 0 {
		_ = s.db.UpdateCircularStatus(circular.ID, "skipped")
		return 0, nil
	}

	if err := os.MkdirAll(s.cfg.CutoffDir, 0o755); err != nil {
		return 0, err
	}

	total := 0
	for _, att := range attachments {
		dest := filepath.Join(s.cfg.CutoffDir, util.SanitizeFilename(att.Filename))
		if err := os.WriteFile(dest, att.Content, 0o644); err != nil {
			return total, err
		}
		res, err := s.IngestFile(dest, "", 1)
		if err != nil {
			var malformed MalformedTableError
			if errors.As(err, &malformed) {
				fmt.Printf("skipping attachment %s: %v\n", att.Filename, err)
				continue
			}
			return total, err
		}
		total += res.Records
	}

	if err := s.db.UpdateCircularStatus(circular.ID, "processed"); err != nil {
		return total, err
	}
	return total, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
