package pipeline

import (
	"reflect"
	"testing"

	"cetpredict/internal"
)

func TestNormalizeNarrowFiveColumns(t *testing.T) {
	table := internal.RawTable{
		Source: "cet_cutoffs_r1_prov.csv",
		HeaderRows: [][]string{
			{"College Code", "College Name", "Branch Code", "Category", "Cutoff Rank"},
		},
		Rows: [][]string{
			{"E001", "City Engineering College", "CS", "GM", "1200"},
			{"E002", "Rural Institute", "AI", "1G", "–"},
			{"E003", "Hill College", "CE", "GM", "900"},
		},
	}

	records, shape, err := Normalize(table, "ENGG")
	if err != nil {
		t.Fatal(err)
	}
	if shape != internal.ShapeNarrowColumns {
		t.Fatalf("shape=%s", shape)
	}

	want := []internal.CutoffRecord{
		{Course: "ENGG", CollegeCode: "E001", CollegeName: "City Engineering College", Branch: "CS", Category: "GM", CutoffRank: 1200},
		{Course: "ENGG", CollegeCode: "E003", CollegeName: "Hill College", Branch: "CE", Category: "GM", CutoffRank: 900},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records=%+v", records)
	}
}

func TestCanonicalFieldSynonyms(t *testing.T) {
	cases := map[string]string{
		"College Code":       fieldCollegeCode,
		"COLLEGE   NAME":     fieldCollegeName,
		"Branch Code":        fieldBranchCode,
		"Category":           fieldCategory,
		"Rank":               fieldCutoffRank,
		"Cutoff Rank":        fieldCutoffRank,
		"CUTOFF RANK (prov)": fieldCutoffRank,
		"GM":                 "",
		"1G":                 "",
		"Branch":             "",
	}

	for header, want := range cases {
		if got := canonicalField(header); got != want {
			t.Fatalf("canonicalField(%q)=%q, want %q", header, got, want)
		}
	}
}

func TestNarrowDetectionNeedsRankAndCategory(t *testing.T) {
	if isNarrowHeader([]string{"Branch", "GM", "1G"}) {
		t.Fatal("wide matrix misdetected as narrow")
	}
	if !isNarrowHeader([]string{"College Code", "College Name", "Branch Code", "Category", "Rank"}) {
		t.Fatal("five-column header not detected")
	}
}
