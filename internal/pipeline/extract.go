package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"cetpredict/internal"
	"cetpredict/internal/util"
)

// ExtractFile reads one source file into raw tables, dispatching on the
// extension. headerRows is how many leading rows belong to the header
// (multi-level headers from scanned PDFs arrive split across rows).
func ExtractFile(path string, headerRows int) ([]internal.RawTable, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err := ExtractCSV(bytes.NewReader(blob), source, headerRows)
		if err != nil {
			return nil, err
		}
		return []internal.RawTable{table}, nil
	case ".xlsx", ".xls":
		return ExtractXLSX(blob, source, headerRows)
	case ".pdf":
		table, err := ExtractPDF(blob, source, headerRows)
		if err != nil {
			return nil, err
		}
		return []internal.RawTable{table}, nil
	case ".html", ".htm":
		return ExtractHTML(blob, source, headerRows)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", path)
	}
}

func ExtractCSV(r io.Reader, source string, headerRows int) (internal.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return internal.RawTable{}, fmt.Errorf("read csv %s: %w", source, err)
	}

	return splitTable(records, source, headerRows), nil
}

func ExtractXLSX(content []byte, source string, headerRows int) ([]internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", source, err)
	}
	defer f.Close()

	out := []internal.RawTable{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		rows = dropEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		out = append(out, splitTable(rows, source+"#"+sheet, headerRows))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no data sheets in %s", source)
	}
	return out, nil
}

// ExtractPDF reconstructs one table from a cutoff PDF's page text: every
// non-empty line is split into cells on runs of two or more spaces, and
// per-page fragments are concatenated into a single table the way the
// lists are laid out (one continuous matrix across pages).
func ExtractPDF(content []byte, source string, headerRows int) (internal.RawTable, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return internal.RawTable{}, fmt.Errorf("open pdf %s: %w", source, err)
	}

	rows := [][]string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range splitLines(text) {
			cells := splitPDFCells(line)
			if len(cells) == 0 {
				continue
			}
			rows = append(rows, cells)
		}
	}

	return splitTable(rows, source, headerRows), nil
}

func ExtractHTML(content []byte, source string, headerRows int) ([]internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", source, err)
	}

	out := []internal.RawTable{}
	doc.Find("table").Each(func(tableNo int, table *goquery.Selection) {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) < 2 {
			return
		}
		name := source
		if tableNo > 0 {
			name = fmt.Sprintf("%s#%d", source, tableNo)
		}
		out = append(out, splitTable(rows, name, headerRows))
	})

	if len(out) == 0 {
		return nil, fmt.Errorf("no tables in %s", source)
	}
	return out, nil
}

// TableAttachment is one mail attachment that parsed into raw tables.
type TableAttachment struct {
	Filename string
	Content  []byte
}

// ExtractAttachments pulls the CSV/XLSX/PDF attachments out of a raw RFC 822
// message. Attachments in other formats are ignored.
func ExtractAttachments(raw []byte) ([]TableAttachment, string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", err
	}

	out := []TableAttachment{}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".csv", ".xlsx", ".xls", ".pdf":
			out = append(out, TableAttachment{Filename: filename, Content: att.Content})
		}
	}

	return out, env.GetHeader("Subject"), nil
}

func splitTable(rows [][]string, source string, headerRows int) internal.RawTable {
	if headerRows < 1 {
		headerRows = 1
	}
	if headerRows > len(rows) {
		headerRows = len(rows)
	}
	return internal.RawTable{
		Source:     source,
		HeaderRows: rows[:headerRows],
		Rows:       rows[headerRows:],
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimRight(p, " \t")
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

var reCellGap = regexp.MustCompile(`\s{2,}`)

func splitPDFCells(line string) []string {
	parts := reCellGap.Split(strings.TrimSpace(line), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}

func dropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
