package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cetpredict/internal"
)

// ExportCutoffsToXLSX writes the normalized corpus as one flat sheet, the
// long-format counterpart of the wide source tables.
func ExportCutoffsToXLSX(records []internal.CutoffRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"course", "college_code", "college_name", "branch", "category", "cutoff_rank"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range records {
		rowNo := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNo)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, r.Course)
		set(2, r.CollegeCode)
		set(3, r.CollegeName)
		set(4, r.Branch)
		set(5, r.Category)
		set(6, r.CutoffRank)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
