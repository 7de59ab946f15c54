package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wonny/stockdash/internal/chart"
	"github.com/wonny/stockdash/internal/state"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/redis"
)

const (
	minChartSize = 100
	maxChartSize = 4096
)

// ChartHandler projects and renders charts of the current dataset
type ChartHandler struct {
	store    *state.Store
	renderer *chart.Renderer
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(store *state.Store, renderer *chart.Renderer, cache *redis.Cache, log *logger.Logger) *ChartHandler {
	return &ChartHandler{
		store:    store,
		renderer: renderer,
		cache:    cache,
		logger:   log,
	}
}

// Spec returns the chart as series data for client-side drawing.
// Specs are cached per snapshot like the PNG renders.
// POST /api/chart
func (h *ChartHandler) Spec(w http.ResponseWriter, r *http.Request) {
	var sel chart.Selection
	if err := decodeJSON(r, &sel); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	key := redis.ChartSpecKey(snap.ID.String(), sel.Feature, sel.Stocks)

	var cached chart.Spec
	found, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		// unreadable entry, drop it and recompute
		h.logger.WithError(err).Warnf("Chart spec cache entry %s discarded", key)
		if err := h.cache.Delete(ctx, key); err != nil {
			h.logger.WithError(err).Warn("Chart cache delete failed")
		}
	}
	if found {
		w.Header().Set("X-Cache", "HIT")
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	spec, err := chart.Project(snap.Dataset, sel)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.cache.Set(ctx, key, spec, redis.TTLChart); err != nil {
		h.logger.WithError(err).Warn("Chart cache write failed")
	}

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, spec)
}

// PNG renders the chart as an image. Renders are cached per snapshot.
// GET /api/chart.png?feature=Volume&stock=AAPL&stock=FB&width=800&height=400
func (h *ChartHandler) PNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := chart.Selection{
		Feature: q.Get("feature"),
		Stocks:  q["stock"],
	}

	width, err := sizeParam(q.Get("width"), h.renderer.Width)
	if err != nil {
		respondError(w, http.StatusBadRequest, "width: "+err.Error())
		return
	}
	height, err := sizeParam(q.Get("height"), h.renderer.Height)
	if err != nil {
		respondError(w, http.StatusBadRequest, "height: "+err.Error())
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	key := redis.ChartKey(snap.ID.String(), sel.Feature, sel.Stocks, width, height)

	data, found, err := h.cache.GetBytes(ctx, key)
	if err != nil {
		h.logger.WithError(err).Warn("Chart cache read failed")
	}
	if found {
		writePNG(w, data, "HIT")
		return
	}

	spec, err := chart.Project(snap.Dataset, sel)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderPNG(spec, width, height, &buf); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.cache.SetBytes(ctx, key, buf.Bytes(), redis.TTLChart); err != nil {
		h.logger.WithError(err).Warn("Chart cache write failed")
	}

	writePNG(w, buf.Bytes(), "MISS")
}

func writePNG(w http.ResponseWriter, data []byte, cache string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// sizeParam parses an optional pixel size within [minChartSize, maxChartSize]
func sizeParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if v < minChartSize || v > maxChartSize {
		return 0, fmt.Errorf("must be between %d and %d", minChartSize, maxChartSize)
	}
	return v, nil
}
