package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"cetpredict/internal"
)

// MalformedTableError marks a source whose shape is unusable (fewer than two
// columns, or no header at all). It is fatal to that one source only.
type MalformedTableError struct {
	Source string
	Reason string
}

func (e MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table %s: %s", e.Source, e.Reason)
}

// Placeholder tokens PDF extraction leaves behind for absent cutoffs.
var placeholders = map[string]struct{}{
	"":   {},
	"-":  {},
	"--": {},
	"–":  {},
}

// Normalize converts one raw table into canonical cutoff records. The shape
// is detected once from the resolved header: tables carrying the recognized
// five-column synonyms are already long-format and skip the reshape, all
// others are treated as a branch×category wide matrix. A table that survives
// parsing but yields zero records is not an error; the caller decides how
// loudly to report it.
func Normalize(table internal.RawTable, course string) ([]internal.CutoffRecord, internal.TableShape, error) {
	header, rows, err := resolveHeader(table)
	if err != nil {
		return nil, "", err
	}
	if len(header) < 2 {
		return nil, "", MalformedTableError{Source: table.Source, Reason: fmt.Sprintf("%d column(s), need at least 2", len(header))}
	}

	if isNarrowHeader(header) {
		return normalizeNarrow(header, rows, course), internal.ShapeNarrowColumns, nil
	}
	return normalizeWide(header, rows, course), internal.ShapeWideMatrix, nil
}

// resolveHeader flattens a multi-level header by joining each column's
// non-empty fragments with a single space. A single-level table whose first
// data row starts with the token "code" is a headerless extraction artifact:
// that row is promoted to the header.
func resolveHeader(table internal.RawTable) ([]string, [][]string, error) {
	if len(table.HeaderRows) == 0 {
		return nil, nil, MalformedTableError{Source: table.Source, Reason: "no header rows"}
	}

	rows := table.Rows
	if len(table.HeaderRows) > 1 {
		return flattenHeader(table.HeaderRows), rows, nil
	}

	header := trimCells(table.HeaderRows[0])
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToLower(strings.TrimSpace(rows[0][0]))
		if strings.HasPrefix(first, "code") {
			header = trimCells(rows[0])
			rows = rows[1:]
		}
	}
	return header, rows, nil
}

func flattenHeader(headerRows [][]string) []string {
	width := 0
	for _, row := range headerRows {
		if len(row) > width {
			width = len(row)
		}
	}

	out := make([]string, width)
	for col := 0; col < width; col++ {
		fragments := make([]string, 0, len(headerRows))
		for _, row := range headerRows {
			if col >= len(row) {
				continue
			}
			frag := strings.TrimSpace(row[col])
			if frag != "" {
				fragments = append(fragments, frag)
			}
		}
		out[col] = strings.Join(fragments, " ")
	}
	return out
}

// normalizeWide melts a branch×category matrix into long format. The first
// column is the branch label, forward-filled across wrapped rows; every other
// column is a category code. Stray repeated header rows (branch cell equal to
// the renamed column name) are discarded after the fill, so a page-break
// header never interrupts a wrapped branch label.
func normalizeWide(header []string, rows [][]string, course string) []internal.CutoffRecord {
	categories := header[1:]

	out := make([]internal.CutoffRecord, 0, len(rows)*len(categories))
	lastBranch := ""
	for _, row := range rows {
		branch := ""
		if len(row) > 0 {
			branch = strings.TrimSpace(row[0])
		}
		if branch == "" {
			branch = lastBranch
		} else {
			lastBranch = branch
		}
		if branch == "branch" {
			continue
		}

		for i, category := range categories {
			raw := ""
			if i+1 < len(row) {
				raw = strings.TrimSpace(row[i+1])
			}
			rank, ok := coerceRank(raw)
			if !ok {
				continue
			}
			out = append(out, internal.CutoffRecord{
				Course:     course,
				Branch:     branch,
				Category:   strings.TrimSpace(category),
				CutoffRank: rank,
			})
		}
	}
	return out
}

// coerceRank rejects placeholder tokens and anything that does not parse as
// a positive integer. Unparseable cells are expected extraction noise, not
// zeros.
func coerceRank(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if _, isPlaceholder := placeholders[raw]; isPlaceholder {
		return 0, false
	}
	rank, err := strconv.Atoi(raw)
	if err != nil || rank <= 0 {
		return 0, false
	}
	return rank, true
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
