package decoder

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/stockdash/internal/contracts"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var errEmptyFile = errors.New("file has no header row")

// parseCSV reads a delimited-text upload (UTF-8, optional BOM)
func parseCSV(data []byte) (*contracts.Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, row)
	}

	return buildDataset(header, rows, contracts.ParseDate)
}

// parseExcel reads the first worksheet of an .xlsx workbook.
// Raw cell values are used so dates arrive as serial numbers regardless of
// the cell's display format.
func parseExcel(data []byte) (*contracts.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errEmptyFile
	}

	return buildDataset(rows[0], rows[1:], parseExcelDate)
}

// parseExcelDate accepts text dates and Excel serial day numbers
func parseExcelDate(s string) (time.Time, error) {
	t, err := contracts.ParseDate(s)
	if err == nil {
		return t, nil
	}

	serial, serr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if serr != nil || serial <= 0 {
		return time.Time{}, err
	}

	t, serr = excelize.ExcelDateToTime(serial, false)
	if serr != nil {
		return time.Time{}, serr
	}
	return t.UTC(), nil
}

// buildDataset maps header names onto the fixed schema and coerces every row.
// Unknown columns are ignored; a missing schema column fails the whole file.
func buildDataset(header []string, rows [][]string, parseDate func(string) (time.Time, error)) (*contracts.Dataset, error) {
	index := make(map[contracts.Column]int, len(contracts.Columns))
	for i, name := range header {
		col, ok := contracts.ParseColumn(strings.TrimPrefix(name, string(utf8BOM)))
		if !ok {
			continue
		}
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	var missing []string
	for _, col := range contracts.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", contracts.ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	records := make([]contracts.Record, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}

		cell := func(col contracts.Column) string {
			if idx := index[col]; idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		rec, err := coerceRow(i+1, cell, parseDate)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return contracts.NewDataset(records), nil
}

func coerceRow(rowNum int, cell func(contracts.Column) string, parseDate func(string) (time.Time, error)) (contracts.Record, error) {
	var rec contracts.Record
	var err error

	fail := func(col contracts.Column, cause error) error {
		return &contracts.CoercionError{Column: col, Row: rowNum, Value: cell(col), Err: cause}
	}

	if rec.Date, err = parseDate(cell(contracts.ColumnDate)); err != nil {
		return rec, fail(contracts.ColumnDate, err)
	}
	if rec.Volume, err = contracts.ParseVolume(cell(contracts.ColumnVolume)); err != nil {
		return rec, fail(contracts.ColumnVolume, err)
	}
	if rec.AdjClose, err = contracts.ParseAdjClose(cell(contracts.ColumnAdjClose)); err != nil {
		return rec, fail(contracts.ColumnAdjClose, err)
	}
	rec.Stock = cell(contracts.ColumnStock)
	rec.Exchange = cell(contracts.ColumnExchange)

	return rec, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
