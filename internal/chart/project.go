package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
)

// Selection is the chart feature plus the tickers to draw
type Selection struct {
	Feature string   `json:"feature"`
	Stocks  []string `json:"stocks"`
}

// Series is one line of the chart, one per stock
type Series struct {
	Name string      `json:"name"`
	X    []time.Time `json:"x"`
	Y    []float64   `json:"y"`
}

// Spec is a renderer-independent line chart: Date on X, the feature on Y,
// one series per selected stock.
type Spec struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series"`
}

// Points returns the total number of plotted points
func (s *Spec) Points() int {
	n := 0
	for _, series := range s.Series {
		n += len(series.X)
	}
	return n
}

// Project builds a chart spec from the dataset. Rows whose stock is not
// selected are excluded, so an empty selection yields zero series.
// Series appear in first-appearance order; points are sorted by date.
func Project(d *contracts.Dataset, sel Selection) (*Spec, error) {
	if d == nil {
		return nil, contracts.ErrNoDataset
	}

	feature, ok := contracts.ParseColumn(sel.Feature)
	if !ok || feature.Kind() != contracts.KindNumeric {
		return nil, fmt.Errorf("%w: %q", contracts.ErrFeatureNotNumeric, sel.Feature)
	}
	for _, required := range []contracts.Column{feature, contracts.ColumnDate, contracts.ColumnStock} {
		if !d.Has(required) {
			return nil, fmt.Errorf("%w: %q", contracts.ErrMissingFeature, required)
		}
	}

	selected := make(map[string]struct{}, len(sel.Stocks))
	for _, s := range sel.Stocks {
		selected[s] = struct{}{}
	}

	type point struct {
		x time.Time
		y float64
	}

	var order []string
	points := make(map[string][]point)
	for i := 0; i < d.Len(); i++ {
		rec := d.Record(i)
		if _, ok := selected[rec.Stock]; !ok {
			continue
		}
		if _, seen := points[rec.Stock]; !seen {
			order = append(order, rec.Stock)
		}
		y, _ := rec.Float(feature)
		points[rec.Stock] = append(points[rec.Stock], point{x: rec.Date, y: y})
	}

	spec := &Spec{
		Title:  fmt.Sprintf("%s by %s", feature, contracts.ColumnStock),
		XLabel: string(contracts.ColumnDate),
		YLabel: string(feature),
		Series: make([]Series, 0, len(order)),
	}

	for _, stock := range order {
		pts := points[stock]
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].x.Before(pts[j].x) })

		s := Series{Name: stock, X: make([]time.Time, len(pts)), Y: make([]float64, len(pts))}
		for i, p := range pts {
			s.X[i] = p.x
			s.Y[i] = p.y
		}
		spec.Series = append(spec.Series, s)
	}

	return spec, nil
}
