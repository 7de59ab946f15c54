package introspect

import (
	"sort"

	"github.com/wonny/stockdash/internal/contracts"
)

// Option is one entry of a column's filter drop-down
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Options are the distinct values of every column, keyed by column name
type Options map[contracts.Column][]Option

// ByColumn returns the option list for c (empty when the column is absent)
func (o Options) ByColumn(c contracts.Column) []Option {
	if opts, ok := o[c]; ok {
		return opts
	}
	return []Option{}
}

// Lists returns the option lists positionally aligned to contracts.Columns
func (o Options) Lists() [][]Option {
	lists := make([][]Option, len(contracts.Columns))
	for i, c := range contracts.Columns {
		lists[i] = o.ByColumn(c)
	}
	return lists
}

// Introspect computes the distinct values of each column in category order:
// dates chronologically, numbers ascending, text lexicographically.
// ⭐ SSOT: 옵션 목록은 데이터셋이 바뀔 때마다 여기서 다시 계산
func Introspect(d *contracts.Dataset) (Options, error) {
	if d == nil {
		return nil, contracts.ErrNoDataset
	}

	opts := make(Options, len(contracts.Columns))
	for _, c := range contracts.Columns {
		if !d.Has(c) {
			opts[c] = []Option{}
			continue
		}
		opts[c] = distinct(d, c)
	}

	return opts, nil
}

func distinct(d *contracts.Dataset, c contracts.Column) []Option {
	seen := make(map[string]struct{}, d.Len())
	keys := make([]contracts.Record, 0)

	for i := 0; i < d.Len(); i++ {
		rec := d.Record(i)
		label := rec.Format(c)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		keys = append(keys, rec)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return less(c, keys[i], keys[j])
	})

	out := make([]Option, len(keys))
	for i, rec := range keys {
		label := rec.Format(c)
		out[i] = Option{Label: label, Value: label}
	}
	return out
}

func less(c contracts.Column, a, b contracts.Record) bool {
	switch c {
	case contracts.ColumnDate:
		return a.Date.Before(b.Date)
	case contracts.ColumnVolume:
		return a.Volume < b.Volume
	case contracts.ColumnAdjClose:
		return a.AdjClose.LessThan(b.AdjClose)
	default:
		return a.Format(c) < b.Format(c)
	}
}
