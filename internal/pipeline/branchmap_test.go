package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBranchMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branches.csv")
	data := "code,name\nAI,Artificial Intelligence\nCS,Computer Science\n,missing code\nEC,\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadBranchMap(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got=%v", got)
	}
	if got["AI"] != "Artificial Intelligence" || got["CS"] != "Computer Science" {
		t.Fatalf("got=%v", got)
	}
}

func TestLoadBranchMapMissingFile(t *testing.T) {
	if _, err := LoadBranchMap(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error")
	}
}
