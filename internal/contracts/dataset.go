package contracts

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of a stock price dataset
type Record struct {
	Date     time.Time       `json:"date"`
	Volume   int64           `json:"volume"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Stock    string          `json:"stock"`
	Exchange string          `json:"exchange"`
}

// Format returns the canonical string rendering of a cell
func (r Record) Format(c Column) string {
	switch c {
	case ColumnDate:
		return FormatDate(r.Date)
	case ColumnVolume:
		return strconv.FormatInt(r.Volume, 10)
	case ColumnAdjClose:
		return r.AdjClose.String()
	case ColumnStock:
		return r.Stock
	case ColumnExchange:
		return r.Exchange
	default:
		return ""
	}
}

// Value returns a JSON-ready cell value. Numbers stay numbers on the wire.
func (r Record) Value(c Column) any {
	switch c {
	case ColumnDate:
		return FormatDate(r.Date)
	case ColumnVolume:
		return r.Volume
	case ColumnAdjClose:
		return json.Number(r.AdjClose.String())
	case ColumnStock:
		return r.Stock
	case ColumnExchange:
		return r.Exchange
	default:
		return nil
	}
}

// Float returns the numeric value of a numeric column
func (r Record) Float(c Column) (float64, bool) {
	switch c {
	case ColumnVolume:
		return float64(r.Volume), true
	case ColumnAdjClose:
		return r.AdjClose.InexactFloat64(), true
	default:
		return 0, false
	}
}

// Dataset is an immutable table of records over a subset of the fixed
// columns. Every transformation returns a new Dataset.
// ⭐ SSOT: 데이터셋은 생성 후 변경하지 않음
type Dataset struct {
	columns []Column
	records []Record
}

// NewDataset creates a dataset with all five columns present
func NewDataset(records []Record) *Dataset {
	recs := make([]Record, len(records))
	copy(recs, records)

	cols := make([]Column, len(Columns))
	copy(cols, Columns)

	return &Dataset{columns: cols, records: recs}
}

// Columns returns the present columns in schema order
func (d *Dataset) Columns() []Column {
	cols := make([]Column, len(d.columns))
	copy(cols, d.columns)
	return cols
}

// Has reports whether the column is still present
func (d *Dataset) Has(c Column) bool {
	for _, col := range d.columns {
		if col == c {
			return true
		}
	}
	return false
}

// Len returns the row count
func (d *Dataset) Len() int {
	return len(d.records)
}

// Record returns row i
func (d *Dataset) Record(i int) Record {
	return d.records[i]
}

// Records returns a copy of all rows
func (d *Dataset) Records() []Record {
	recs := make([]Record, len(d.records))
	copy(recs, d.records)
	return recs
}

// Where returns a dataset with only the rows for which keep returns true.
// Surviving rows keep their original order.
func (d *Dataset) Where(keep func(Record) bool) *Dataset {
	recs := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		if keep(r) {
			recs = append(recs, r)
		}
	}
	return &Dataset{columns: d.Columns(), records: recs}
}

// Without returns a dataset with column c removed
func (d *Dataset) Without(c Column) *Dataset {
	cols := make([]Column, 0, len(d.columns))
	for _, col := range d.columns {
		if col != c {
			cols = append(cols, col)
		}
	}
	return &Dataset{columns: cols, records: d.Records()}
}
