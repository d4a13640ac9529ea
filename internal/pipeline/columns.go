package pipeline

import (
	"strings"

	"cetpredict/internal"
	"cetpredict/internal/util"
)

// Canonical field names for sources that already arrive long-format.
const (
	fieldCollegeCode = "college_code"
	fieldCollegeName = "college_name"
	fieldBranchCode  = "branch_code"
	fieldCategory    = "category"
	fieldCutoffRank  = "cutoff_rank"
)

// narrowSynonyms is a closed mapping of recognized header strings; anything
// outside it stays unrecognized so behavior is deterministic rather than
// fuzzy-matched.
var narrowSynonyms = map[string]string{
	"college code": fieldCollegeCode,
	"college name": fieldCollegeName,
	"branch code":  fieldBranchCode,
	"category":     fieldCategory,
	"rank":         fieldCutoffRank,
}

func canonicalField(header string) string {
	h := strings.ToLower(util.NormalizeSpaces(header))
	if field, ok := narrowSynonyms[h]; ok {
		return field
	}
	if strings.Contains(h, "cutoff") && strings.Contains(h, "rank") {
		return fieldCutoffRank
	}
	return ""
}

func mapNarrowHeader(header []string) map[string]int {
	fields := map[string]int{}
	for i, h := range header {
		field := canonicalField(h)
		if field == "" {
			continue
		}
		if _, taken := fields[field]; !taken {
			fields[field] = i
		}
	}
	return fields
}

// isNarrowHeader reports whether the header carries the five-column synonym
// set. A cutoff-rank column plus a category column is the minimum that makes
// a table long-format; a bare wide matrix has neither.
func isNarrowHeader(header []string) bool {
	fields := mapNarrowHeader(header)
	_, hasRank := fields[fieldCutoffRank]
	_, hasCategory := fields[fieldCategory]
	return hasRank && hasCategory
}

// normalizeNarrow is the adapter for five-column sources: rename recognized
// headers, narrow to them, and coerce each row directly — no reshape needed.
func normalizeNarrow(header []string, rows [][]string, course string) []internal.CutoffRecord {
	fields := mapNarrowHeader(header)

	cell := func(row []string, field string) string {
		idx, ok := fields[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	out := make([]internal.CutoffRecord, 0, len(rows))
	for _, row := range rows {
		rank, ok := coerceRank(cell(row, fieldCutoffRank))
		if !ok {
			continue
		}
		branch := cell(row, fieldBranchCode)
		category := cell(row, fieldCategory)
		if branch == "" || category == "" {
			continue
		}
		out = append(out, internal.CutoffRecord{
			Course:      course,
			CollegeCode: cell(row, fieldCollegeCode),
			CollegeName: cell(row, fieldCollegeName),
			Branch:      branch,
			Category:    category,
			CutoffRank:  rank,
		})
	}
	return out
}
