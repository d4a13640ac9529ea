package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"cetpredict/internal/config"
	"cetpredict/internal/predict"
	"cetpredict/internal/storage"
)

func TestSmokeIngestToQuery(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "cutoffs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	blob := mkXLSX([][]any{
		{"Branch", "GM", "1G"},
		{"AI", 100, 50},
		{"CE", "", 30},
	})
	srcPath := filepath.Join(tmp, "ENGG_CUTOFF_2024_r1.xlsx")
	if err := os.WriteFile(srcPath, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _ := config.Load()
	ingest := NewIngestService(db, cfg)

	res, err := ingest.IngestFile(srcPath, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Records != 3 {
		t.Fatalf("records=%d", res.Records)
	}

	// Re-ingesting the same file must not double-count.
	if _, err := ingest.IngestFile(srcPath, "", 1); err != nil {
		t.Fatal(err)
	}
	records, err := db.ListCutoffs()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records after re-ingest=%d", len(records))
	}
	if records[0].Course != "ENGG" {
		t.Fatalf("course=%q", records[0].Course)
	}

	idx, err := predict.BuildIndex(records)
	if err != nil {
		t.Fatal(err)
	}
	out, err := idx.Query(predict.Params{Course: "ENGG", Category: "GM", Rank: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Branch != "AI" {
		t.Fatalf("out=%+v", out)
	}
}

func TestIngestEmptySourceIsDegradedNotFatal(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "cutoffs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	blob := mkXLSX([][]any{
		{"Branch", "GM"},
		{"AI", "-"},
	})
	srcPath := filepath.Join(tmp, "ENGG_CUTOFF_empty.xlsx")
	if err := os.WriteFile(srcPath, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _ := config.Load()
	ingest := NewIngestService(db, cfg)
	res, err := ingest.IngestFile(srcPath, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Records != 0 {
		t.Fatalf("records=%d", res.Records)
	}

	src, err := db.GetSourceByName("ENGG_CUTOFF_empty.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if src == nil || src.Status != "empty" {
		t.Fatalf("source=%+v", src)
	}
}
