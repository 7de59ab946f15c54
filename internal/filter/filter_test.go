package filter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
)

func rec(date string, volume int64, adj, stock string) contracts.Record {
	d, err := contracts.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return contracts.Record{
		Date:     d,
		Volume:   volume,
		AdjClose: decimal.RequireFromString(adj),
		Stock:    stock,
		Exchange: "NASDAQ",
	}
}

// scenario is the three-row AAPL/FB dataset
func scenario() *contracts.Dataset {
	return contracts.NewDataset([]contracts.Record{
		rec("2021-01-01", 100, "10.5", "AAPL"),
		rec("2021-01-02", 200, "11.0", "AAPL"),
		rec("2021-01-01", 50, "5.0", "FB"),
	})
}

func TestApply_Identity(t *testing.T) {
	ds := scenario()

	for name, dirs := range map[string]Directives{
		"nil":   nil,
		"empty": {},
		"blank": {contracts.ColumnDate: {}, contracts.ColumnStock: {Value: "  "}},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := Apply(ds, dirs)
			require.NoError(t, err)
			assert.Equal(t, ds.Columns(), out.Columns())
			assert.Equal(t, ds.Records(), out.Records())
		})
	}
}

func TestApply_Scenario(t *testing.T) {
	ds := scenario()

	t.Run("volume greater than 100", func(t *testing.T) {
		out, err := Apply(ds, Directives{contracts.ColumnVolume: {Value: "100"}})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, ds.Record(1), out.Record(0))
	})

	t.Run("stock equals AAPL", func(t *testing.T) {
		out, err := Apply(ds, Directives{contracts.ColumnStock: {Value: "AAPL"}})
		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, ds.Record(0), out.Record(0))
		assert.Equal(t, ds.Record(1), out.Record(1))
	})

	t.Run("date after", func(t *testing.T) {
		out, err := Apply(ds, Directives{contracts.ColumnDate: {Value: "2021-01-01"}})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, int64(200), out.Record(0).Volume)
	})

	t.Run("adj close above", func(t *testing.T) {
		out, err := Apply(ds, Directives{contracts.ColumnAdjClose: {Value: "5"}})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
	})

	t.Run("combined", func(t *testing.T) {
		out, err := Apply(ds, Directives{
			contracts.ColumnVolume: {Value: "60"},
			contracts.ColumnStock:  {Value: "AAPL", Drop: true},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
		assert.False(t, out.Has(contracts.ColumnStock))
	})

	// input untouched
	assert.Equal(t, 3, ds.Len())
	assert.Len(t, ds.Columns(), 5)
}

func TestApply_DropWinsOverPredicate(t *testing.T) {
	ds := scenario()

	for _, col := range contracts.Columns {
		t.Run(string(col), func(t *testing.T) {
			value := ds.Record(0).Format(col)
			out, err := Apply(ds, Directives{col: {Value: value, Drop: true}})
			require.NoError(t, err)
			assert.False(t, out.Has(col))
			assert.NotContains(t, out.Columns(), col)

			for _, row := range ToTable(out).Rows {
				assert.NotContains(t, row, string(col))
			}
		})
	}
}

func TestApply_NumericBound(t *testing.T) {
	var records []contracts.Record
	for i := int64(0); i < 20; i++ {
		records = append(records, rec("2021-01-01", i*10, decimal.NewFromInt(i).Div(decimal.NewFromInt(4)).String(), "A"))
	}
	ds := contracts.NewDataset(records)

	tests := []struct {
		col   contracts.Column
		value string
		check func(contracts.Record) bool
	}{
		{contracts.ColumnVolume, "95", func(r contracts.Record) bool { return r.Volume > 95 }},
		{contracts.ColumnVolume, "100", func(r contracts.Record) bool { return r.Volume > 100 }},
		{contracts.ColumnAdjClose, "2.25", func(r contracts.Record) bool { return r.AdjClose.GreaterThan(decimal.RequireFromString("2.25")) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.col)+">"+tt.value, func(t *testing.T) {
			out, err := Apply(ds, Directives{tt.col: {Value: tt.value}})
			require.NoError(t, err)

			survivors := 0
			for _, r := range ds.Records() {
				if tt.check(r) {
					survivors++
				}
			}
			assert.Equal(t, survivors, out.Len())
			for _, r := range out.Records() {
				assert.True(t, tt.check(r), "row %+v should not survive", r)
			}
		})
	}
}

func TestApply_Errors(t *testing.T) {
	ds := scenario()

	t.Run("bad number", func(t *testing.T) {
		_, err := Apply(ds, Directives{contracts.ColumnVolume: {Value: "lots"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidDirective))
		assert.True(t, errors.Is(err, contracts.ErrTypeCoercion))

		var ce *contracts.CoercionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, contracts.ColumnVolume, ce.Column)
		assert.Equal(t, "lots", ce.Value)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := Apply(ds, Directives{contracts.ColumnDate: {Value: "yesterday"}})
		assert.True(t, errors.Is(err, contracts.ErrInvalidDirective))
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := Apply(ds, Directives{"Open": {Value: "1"}})
		assert.True(t, errors.Is(err, contracts.ErrUnknownColumn))
	})

	t.Run("predicate on dropped column", func(t *testing.T) {
		_, err := Apply(ds.Without(contracts.ColumnStock), Directives{contracts.ColumnStock: {Value: "AAPL"}})
		assert.True(t, errors.Is(err, contracts.ErrUnknownColumn))
	})

	t.Run("drop of dropped column", func(t *testing.T) {
		out, err := Apply(ds.Without(contracts.ColumnStock), Directives{contracts.ColumnStock: {Drop: true}})
		require.NoError(t, err)
		assert.False(t, out.Has(contracts.ColumnStock))
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := Apply(nil, nil)
		assert.ErrorIs(t, err, contracts.ErrNoDataset)
	})
}

func TestDirectives_UnmarshalJSON(t *testing.T) {
	var dirs Directives
	require.NoError(t, json.Unmarshal([]byte(`{"adj close":{"value":"10"},"Stock":{"drop":true}}`), &dirs))
	assert.Equal(t, Directives{
		contracts.ColumnAdjClose: {Value: "10"},
		contracts.ColumnStock:    {Drop: true},
	}, dirs)

	err := json.Unmarshal([]byte(`{"Open":{"value":"1"}}`), &dirs)
	assert.True(t, errors.Is(err, contracts.ErrUnknownColumn))
}

func TestDirectives_UnmarshalJSON_DuplicateColumn(t *testing.T) {
	var dirs Directives
	err := json.Unmarshal([]byte(`{"stock":{"value":"AAPL"},"Stock":{"value":"FB"}}`), &dirs)
	assert.ErrorIs(t, err, contracts.ErrInvalidDirective)
	assert.Nil(t, dirs)
}

func TestToTable(t *testing.T) {
	out, err := Apply(scenario(), Directives{contracts.ColumnExchange: {Drop: true}})
	require.NoError(t, err)

	table := ToTable(out)
	assert.Equal(t, []string{"Date", "Volume", "Adj Close", "Stock"}, table.Columns)
	require.Len(t, table.Rows, 3)

	data, err := json.Marshal(table.Rows[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"Date":"2021-01-02","Volume":200,"Adj Close":11,"Stock":"AAPL"}`, string(data))
}
