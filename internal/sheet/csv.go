package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"isbndate/internal/fileutil"
	"isbndate/internal/services"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sheet", "parse csv", path, err)
	}
	return rows, nil
}

func writeCSV(path string, t *Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("encode csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("encode csv rows: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "sheet", "write csv", path, err)
	}
	return nil
}
