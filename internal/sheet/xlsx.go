package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"isbndate/internal/fileutil"
	"isbndate/internal/services"
)

// textNumFmt is the built-in "@" number format.
const textNumFmt = 49

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sheet", "open xlsx", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, services.Wrap(services.ErrValidation, "sheet", "read xlsx", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sheet", "read xlsx", sheets[0], err)
	}
	for _, row := range rows {
		if len(row) > 0 {
			row[0] = plainNumber(row[0])
		}
	}
	return rows, nil
}

// plainNumber expands raw numeric identifier cells such as "9.780131103627E+12" or
// "8467034566.0" into their digit form. Other values are returned unchanged.
func plainNumber(cell string) string {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || strings.Trim(trimmed, "0123456789.eE+-") != "" {
		return cell
	}
	if !strings.ContainsAny(trimmed, ".eE") {
		return cell
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || v != float64(int64(v)) {
		return cell
	}
	return strconv.FormatInt(int64(v), 10)
}

func writeXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), OutputSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: textNumFmt})
	if err != nil {
		return fmt.Errorf("create text style: %w", err)
	}
	if err := f.SetColStyle(OutputSheetName, "A", textStyle); err != nil {
		return fmt.Errorf("style identifier column: %w", err)
	}

	rows := append([][]string{t.Header}, t.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(OutputSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if len(row) > 0 {
			if err := f.SetCellStyle(OutputSheetName, cell, cell, textStyle); err != nil {
				return fmt.Errorf("style row %d: %w", i+1, err)
			}
		}
	}
	if err := autoWidth(f, t); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "sheet", "write xlsx", path, err)
	}
	return nil
}

// autoWidth sizes every column to its longest value, capped at 50 characters.
func autoWidth(f *excelize.File, t *Table) error {
	widths := make([]int, len(t.Header))
	measure := func(row []string) {
		for i, v := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len([]rune(v)))
		}
	}
	measure(t.Header)
	for _, row := range t.Rows {
		measure(row)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(OutputSheetName, col, col, float64(min(w+2, 50))); err != nil {
			return fmt.Errorf("size column %s: %w", col, err)
		}
	}
	return nil
}
