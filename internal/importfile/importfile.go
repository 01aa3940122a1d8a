// Package importfile decodes bulk import files into raw employee rows.
package importfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// Format identifies an import file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var requiredColumns = []string{"name", "email"}

// FormatFromName picks the format from a file name extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", apperrors.NewValidationError("unsupported import file type", map[string]any{
			"file":      name,
			"supported": []string{".csv", ".xlsx"},
		})
	}
}

// Decode reads rows from r in the format implied by name.
func Decode(name string, r io.Reader) ([]domain.ImportRow, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return DecodeXLSX(r)
	default:
		return DecodeCSV(r)
	}
}

// DecodeCSV reads a UTF-8 CSV file with a header row.
func DecodeCSV(r io.Reader) ([]domain.ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, apperrors.NewValidationError("import file must be UTF-8 encoded", nil)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError("malformed CSV", map[string]any{"error": err.Error()})
		}
		records = append(records, record)
	}
	return rowsFromRecords(records)
}

// DecodeXLSX reads the first sheet of a workbook with a header row.
func DecodeXLSX(r io.Reader) ([]domain.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("malformed XLSX", map[string]any{"error": err.Error()})
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("workbook has no sheets", nil)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewValidationError("malformed XLSX", map[string]any{"error": err.Error()})
	}
	return rowsFromRecords(records)
}

// rowsFromRecords maps data records onto header columns. Blank records are
// skipped and row numbers count data rows from 1.
func rowsFromRecords(records [][]string) ([]domain.ImportRow, error) {
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("import file is empty", nil)
	}

	header := make([]string, len(records[0]))
	present := map[string]bool{}
	for i, col := range records[0] {
		header[i] = normalizeHeader(col)
		present[header[i]] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("import file is missing required columns", map[string]any{
			"missing": missing,
		})
	}

	rows := make([]domain.ImportRow, 0, len(records)-1)
	rowNumber := 0
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		rowNumber++
		values := make(map[string]string, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(record) {
				values[col] = strings.TrimSpace(record[i])
			} else {
				values[col] = ""
			}
		}
		rows = append(rows, domain.ImportRowFromMap(rowNumber, values))
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("import file has no data rows", nil)
	}
	return rows, nil
}

func normalizeHeader(col string) string {
	col = strings.TrimPrefix(col, "\ufeff")
	col = strings.ToLower(strings.TrimSpace(col))
	return strings.Join(strings.Fields(col), "_")
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Template returns an empty workbook containing only the header row.
func Template() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := make([]any, len(domain.ImportColumns))
	for i, col := range domain.ImportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write template header: %w", err)
	}
	return f, nil
}
