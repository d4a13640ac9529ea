package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadBranchMap reads a two-column CSV of branch code to descriptive full
// name. A header row whose first cell is "code" or "branch" is skipped.
func LoadBranchMap(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read branch map %s: %w", path, err)
	}

	out := map[string]string{}
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		code := strings.TrimSpace(row[0])
		full := strings.TrimSpace(row[1])
		if code == "" || full == "" {
			continue
		}
		if i == 0 {
			lower := strings.ToLower(code)
			if lower == "code" || lower == "branch" || lower == "branch_code" {
				continue
			}
		}
		out[code] = full
	}
	return out, nil
}
