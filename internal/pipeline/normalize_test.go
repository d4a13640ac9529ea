package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"cetpredict/internal"
)

func wideTable(header []string, rows [][]string) internal.RawTable {
	return internal.RawTable{
		Source:     "test.csv",
		HeaderRows: [][]string{header},
		Rows:       rows,
	}
}

func TestNormalizeWideMelt(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM", "1G"},
		[][]string{
			{"AI", "100", "50"},
			{"CE", "", "30"},
		},
	)

	records, shape, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if shape != internal.ShapeWideMatrix {
		t.Fatalf("shape=%s", shape)
	}

	want := []internal.CutoffRecord{
		{Course: "ENGG", Branch: "AI", Category: "GM", CutoffRank: 100},
		{Course: "ENGG", Branch: "AI", Category: "1G", CutoffRank: 50},
		{Course: "ENGG", Branch: "CE", Category: "1G", CutoffRank: 30},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records=%+v", records)
	}
}

func TestNormalizeForwardFill(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM"},
		[][]string{
			{"AI", "100"},
			{"", "200"},
			{"CE", "300"},
		},
	)

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len=%d", len(records))
	}
	if records[1].Branch != "AI" {
		t.Fatalf("second row branch=%q, want AI", records[1].Branch)
	}
	if records[2].Branch != "CE" {
		t.Fatalf("third row branch=%q, want CE", records[2].Branch)
	}
}

func TestNormalizeDropsStrayHeaderRows(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM"},
		[][]string{
			{"AI", "100"},
			{"branch", "GM"},
			{"CE", "300"},
		},
	)

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if r.Branch == "branch" {
			t.Fatalf("stray header row survived: %+v", r)
		}
	}
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
}

func TestNormalizePlaceholdersAndCoercion(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM", "1G", "2A", "3B"},
		[][]string{
			{"AI", "-", "--", "–", ""},
			{"CE", "abc", "0", "-5", "42"},
		},
	)

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%+v", records)
	}
	if records[0].Category != "3B" || records[0].CutoffRank != 42 {
		t.Fatalf("record=%+v", records[0])
	}
	for _, r := range records {
		if r.CutoffRank <= 0 {
			t.Fatalf("non-positive cutoff survived: %+v", r)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM", "1G"},
		[][]string{
			{"AI", "100", "50"},
			{"", "80", "-"},
			{"CE", "", "30"},
		},
	)

	first, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestNormalizeMultiLevelHeader(t *testing.T) {
	table := internal.RawTable{
		Source: "test.csv",
		HeaderRows: [][]string{
			{"Branch", "GM", ""},
			{"", "", "1G"},
		},
		Rows: [][]string{
			{"AI", "100", "50"},
		},
	}

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0].Category != "GM" || records[1].Category != "1G" {
		t.Fatalf("records=%+v", records)
	}
}

func TestNormalizePromotesHeaderRow(t *testing.T) {
	table := wideTable(
		[]string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2"},
		[][]string{
			{"code branch", "GM", "1G"},
			{"AI", "100", "50"},
		},
	)

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	want := []internal.CutoffRecord{
		{Course: "ENGG", Branch: "AI", Category: "GM", CutoffRank: 100},
		{Course: "ENGG", Branch: "AI", Category: "1G", CutoffRank: 50},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records=%+v", records)
	}
}

func TestNormalizeRejectsSingleColumn(t *testing.T) {
	table := wideTable([]string{"Branch"}, [][]string{{"AI"}})

	_, _, err := Normalize(table, "ENGG")
	var malformed MalformedTableError
	if !errors.As(err, &malformed) {
		t.Fatalf("err=%v", err)
	}
	if malformed.Source != "test.csv" {
		t.Fatalf("source=%q", malformed.Source)
	}
}

func TestNormalizeEmptyYieldIsNotAnError(t *testing.T) {
	table := wideTable(
		[]string{"Branch", "GM"},
		[][]string{{"AI", "-"}},
	)

	records, _, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%+v", records)
	}
}
