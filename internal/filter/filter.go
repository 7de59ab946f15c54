package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/stockdash/internal/contracts"
)

// Directive is the user's choice for one column.
// An empty Value means no row predicate.
type Directive struct {
	Value string `json:"value"`
	Drop  bool   `json:"drop"`
}

// Directives are keyed by column name
type Directives map[contracts.Column]Directive

// UnmarshalJSON resolves column keys case-insensitively and rejects unknown
// ones. Two keys naming the same column ("stock" and "Stock") are ambiguous.
func (ds *Directives) UnmarshalJSON(data []byte) error {
	var raw map[string]Directive
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Directives, len(raw))
	for name, dir := range raw {
		col, ok := contracts.ParseColumn(name)
		if !ok {
			return fmt.Errorf("%w: %q", contracts.ErrUnknownColumn, name)
		}
		if _, dup := out[col]; dup {
			return fmt.Errorf("%w: column %q given more than once", contracts.ErrInvalidDirective, col)
		}
		out[col] = dir
	}
	*ds = out
	return nil
}

// Apply filters rows and projects columns. Columns are processed in schema
// order; for each one the row predicate runs first, then the drop.
// Date, Volume and Adj Close keep rows strictly greater than the value;
// Stock and Exchange keep rows equal to it.
// ⭐ SSOT: 필터는 입력 데이터셋을 절대 수정하지 않음
func Apply(d *contracts.Dataset, dirs Directives) (*contracts.Dataset, error) {
	if d == nil {
		return nil, contracts.ErrNoDataset
	}

	for col := range dirs {
		if !col.Valid() {
			return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownColumn, col)
		}
	}

	out := d
	for _, col := range contracts.Columns {
		dir, ok := dirs[col]
		if !ok {
			continue
		}

		if value := strings.TrimSpace(dir.Value); value != "" {
			if !out.Has(col) {
				return nil, fmt.Errorf("%w: %q is not in the dataset", contracts.ErrUnknownColumn, col)
			}
			keep, err := predicate(col, value)
			if err != nil {
				return nil, err
			}
			out = out.Where(keep)
		}

		if dir.Drop {
			out = out.Without(col)
		}
	}

	return out, nil
}

func predicate(col contracts.Column, value string) (func(contracts.Record) bool, error) {
	invalid := func(err error) error {
		ce := &contracts.CoercionError{Column: col, Value: value, Err: err}
		return fmt.Errorf("%w: %w", contracts.ErrInvalidDirective, ce)
	}

	switch col {
	case contracts.ColumnDate:
		v, err := contracts.ParseDate(value)
		if err != nil {
			return nil, invalid(err)
		}
		return func(r contracts.Record) bool { return r.Date.After(v) }, nil

	case contracts.ColumnVolume:
		v, err := parseVolumeBound(value)
		if err != nil {
			return nil, invalid(err)
		}
		return func(r contracts.Record) bool { return v.LessThan(decimal.NewFromInt(r.Volume)) }, nil

	case contracts.ColumnAdjClose:
		v, err := contracts.ParseAdjClose(value)
		if err != nil {
			return nil, invalid(err)
		}
		return func(r contracts.Record) bool { return r.AdjClose.GreaterThan(v) }, nil

	case contracts.ColumnStock:
		return func(r contracts.Record) bool { return r.Stock == value }, nil

	case contracts.ColumnExchange:
		return func(r contracts.Record) bool { return r.Exchange == value }, nil
	}

	return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownColumn, col)
}

// parseVolumeBound accepts fractional thresholds ("Volume > 99.5")
func parseVolumeBound(value string) (decimal.Decimal, error) {
	if v, err := contracts.ParseVolume(value); err == nil {
		return decimal.NewFromInt(v), nil
	}
	return contracts.ParseAdjClose(value)
}

// Table is the filtered dataset as the dashboard table renders it
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ToTable renders the present columns and one record per row
func ToTable(d *contracts.Dataset) *Table {
	cols := d.Columns()

	t := &Table{
		Columns: make([]string, len(cols)),
		Rows:    make([]map[string]any, d.Len()),
	}
	for i, c := range cols {
		t.Columns[i] = string(c)
	}

	for i := 0; i < d.Len(); i++ {
		rec := d.Record(i)
		row := make(map[string]any, len(cols))
		for _, c := range cols {
			row[string(c)] = rec.Value(c)
		}
		t.Rows[i] = row
	}

	return t
}
