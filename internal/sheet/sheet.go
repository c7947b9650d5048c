package sheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"isbndate/internal/services"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// OutputSheetName is the worksheet name used for XLSX output.
const OutputSheetName = "ISBNs"

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// FormatFor infers the format from path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", services.Wrap(services.ErrValidation, "sheet", "detect format",
			fmt.Sprintf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path)), nil)
	}
}

// Read loads the spreadsheet at path.
func Read(path string) (*Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(path)
	case FormatXLSX:
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}
	return newTable(path, rows)
}

// Write stores t at path in the format implied by its extension.
func Write(path string, t *Table) error {
	if t == nil {
		return services.Wrap(services.ErrValidation, "sheet", "write", "nil table", nil)
	}
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return writeCSV(path, t)
	default:
		return writeXLSX(path, t)
	}
}

// OutputPath derives the default output file for input: name_procesados.ext.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_procesados" + ext
}

func newTable(path string, rows [][]string) (*Table, error) {
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 || blankRow(rows[0]) {
		return nil, services.Wrap(services.ErrValidation, "sheet", "read",
			fmt.Sprintf("%s has no header row", filepath.Base(path)), nil)
	}
	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}

// Identifiers returns the trimmed first-column value of every data row.
func (t *Table) Identifiers() []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) > 0 {
			out[i] = strings.TrimSpace(row[0])
		}
	}
	return out
}

// WithColumn returns a copy of t with header appended and values[i] added to
// row i. Missing values are left blank.
func (t *Table) WithColumn(header string, values []string) *Table {
	width := len(t.Header)
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	out := &Table{
		Header: append(pad(t.Header, width), header),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		out.Rows[i] = append(pad(row, width), value)
	}
	return out
}

func pad(row []string, width int) []string {
	out := make([]string, width, width+1)
	copy(out, row)
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
