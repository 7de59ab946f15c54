package contracts

import "strings"

// Column names one of the five fixed dataset columns
// ⭐ SSOT: 컬럼 스키마는 여기서만 정의
type Column string

const (
	ColumnDate     Column = "Date"
	ColumnVolume   Column = "Volume"
	ColumnAdjClose Column = "Adj Close"
	ColumnStock    Column = "Stock"
	ColumnExchange Column = "Exchange"
)

// Columns is the fixed schema in positional order.
// Introspection and filtering both walk columns in this order.
var Columns = []Column{
	ColumnDate,
	ColumnVolume,
	ColumnAdjClose,
	ColumnStock,
	ColumnExchange,
}

// ColumnKind is the inferred type of a column
type ColumnKind string

const (
	KindDateTime ColumnKind = "datetime"
	KindNumeric  ColumnKind = "numeric"
	KindText     ColumnKind = "text"
)

// Kind returns the column type
func (c Column) Kind() ColumnKind {
	switch c {
	case ColumnDate:
		return KindDateTime
	case ColumnVolume, ColumnAdjClose:
		return KindNumeric
	case ColumnStock, ColumnExchange:
		return KindText
	default:
		return ""
	}
}

// Index returns the positional index of the column, or -1 if unknown
func (c Column) Index() int {
	for i, col := range Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is part of the fixed schema
func (c Column) Valid() bool {
	return c.Index() >= 0
}

// ParseColumn resolves a header or request key to a schema column.
// Matching ignores case and surrounding spaces ("adj close" → Adj Close).
func ParseColumn(name string) (Column, bool) {
	name = strings.TrimSpace(name)
	for _, col := range Columns {
		if strings.EqualFold(string(col), name) {
			return col, true
		}
	}
	return "", false
}
