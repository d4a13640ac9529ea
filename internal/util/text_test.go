package util

import (
	"strings"
	"testing"
)

func TestNormalizeSpaces(t *testing.T) {
	cases := map[string]string{
		"  CUTOFF   RANK ": "CUTOFF RANK",
		"Branch\tCode":     "Branch Code",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeSpaces(in); got != want {
			t.Errorf("NormalizeSpaces(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestCourseFromFilename(t *testing.T) {
	cases := map[string]string{
		"ENGG_CUTOFF_2024_r1_gen.csv":      "ENGG",
		"/data/cutoffs/MED_round2.xlsx":    "MED",
		"ARCH.pdf":                         "ARCH",
		"_leading.csv":                     "_leading",
	}
	for in, want := range cases {
		if got := CourseFromFilename(in); got != want {
			t.Errorf("CourseFromFilename(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("round 1/gen:final?.csv"); got != "round_1_gen_final_.csv" {
		t.Fatalf("got %q", got)
	}
	long := SanitizeFilename(strings.Repeat("a", 200))
	if len(long) != 120 {
		t.Fatalf("len=%d", len(long))
	}
}
