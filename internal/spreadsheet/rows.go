// Package spreadsheet turns uploaded professor, student and question sheets
// into validated parse records. Bad rows become "Row N: ..." warnings; only a
// missing header column fails the whole file.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"evaladmin/internal/apperr"
)

// ErrEmpty is returned for files without a header row.
var ErrEmpty = errors.New("spreadsheet has no rows")

// ReadRows returns the cells of the first sheet. Files named *.csv are read
// as CSV; everything else is opened as an xlsx workbook.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, apperr.NewValidationError(fmt.Sprintf("could not read csv: %v", err))
		}
		return rows, nil
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.NewValidationError("could not open spreadsheet; upload an .xlsx or .csv file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	return f.GetRows(sheets[0])
}

// table is a header-indexed view over raw rows.
type table struct {
	cols map[string]int
	rows [][]string
	// first is the 1-based sheet row number of rows[0].
	first int
}

func newTable(raw [][]string, required ...string) (*table, error) {
	hdr := -1
	for i, r := range raw {
		if !blank(r) {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		return nil, apperr.NewValidationError(ErrEmpty.Error())
	}
	cols := make(map[string]int, len(raw[hdr]))
	for i, h := range raw[hdr] {
		h = strings.ToUpper(strings.TrimSpace(h))
		if _, dup := cols[h]; h != "" && !dup {
			cols[h] = i
		}
	}
	var missing []apperr.FieldError
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, apperr.FieldError{Field: name, Error: "missing column"})
		}
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.Field
		}
		return nil, apperr.NewValidationError("missing columns: "+strings.Join(names, ", "), missing...)
	}
	return &table{cols: cols, rows: raw[hdr+1:], first: hdr + 2}, nil
}

func (t *table) cell(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// each visits the non-blank data rows with their sheet row numbers.
func (t *table) each(fn func(n int, row []string)) {
	for i, r := range t.rows {
		if blank(r) {
			continue
		}
		fn(t.first+i, r)
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// splitList splits a cell on commas, semicolons, pipes and newlines,
// dropping blanks.
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CapWarnings keeps the first limit warnings and appends "+N more" when
// some were dropped.
func CapWarnings(warnings []string, limit int) []string {
	if limit <= 0 || len(warnings) <= limit {
		return warnings
	}
	out := make([]string, 0, limit+1)
	out = append(out, warnings[:limit]...)
	return append(out, fmt.Sprintf("+%d more", len(warnings)-limit))
}
