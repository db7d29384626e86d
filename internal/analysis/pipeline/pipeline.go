// Package pipeline runs the full chart computation for one request:
// size limits, per-category summaries and densities, comparison circles,
// and the value axis.
package pipeline

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"catdist/domain/chart"
	"catdist/domain/core"
	"catdist/internal"
	"catdist/internal/analysis/comparison"
	"catdist/internal/analysis/density"
	"catdist/internal/analysis/fence"
	"catdist/internal/analysis/guard"
	"catdist/internal/analysis/scale"
	"catdist/internal/config"
	"catdist/internal/settings"
	"catdist/ports"
)

// defaultLabelHeight is the tick label height in pixels used for collision
// removal when the request does not give one.
const defaultLabelHeight = 12

// Request is one chart computation.
type Request struct {
	ID       core.RequestID
	Rows     []chart.Row
	Settings settings.Settings
	// Capabilities overrides Settings for metric and axis resolution.
	Capabilities ports.Capabilities
	Live         ports.Liveness

	// AxisHeight is the plot height in pixels. Zero skips label layout.
	AxisHeight  float64
	LabelHeight float64
}

func (r Request) capabilities() ports.Capabilities {
	if r.Capabilities != nil {
		return r.Capabilities
	}
	return r.Settings
}

// Axis is the configured value axis.
type Axis struct {
	Mode          chart.AxisMode
	Min, Max      float64
	LinearPortion float64
	Ticks         []float64
	// VisibleTicks are the ticks whose labels survive collision removal.
	VisibleTicks []float64
}

// Result is everything a renderer needs for one chart.
type Result struct {
	RequestID    core.RequestID
	SettingsHash core.SettingsHash
	Categories   []string
	Summaries    []chart.CategorySummary
	Densities    []chart.CategoryDensity
	Comparison   chart.Comparison
	Axis         Axis
	Metrics      chart.MetricSet
	Elapsed      time.Duration
}

// Engine computes chart results within configured limits.
type Engine struct {
	limits config.LimitsConfig
	logger *internal.Logger
}

// NewEngine creates a pipeline engine
func NewEngine(limits config.LimitsConfig) *Engine {
	if limits.Workers <= 0 {
		limits.Workers = 1
	}
	return &Engine{limits: limits, logger: internal.DefaultLogger.With("pipeline")}
}

// Compute runs every stage for req. Any abort error discards the whole
// result.
func (e *Engine) Compute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = core.NewRequestID()
	}

	if e.limits.MaxRows > 0 && len(req.Rows) > e.limits.MaxRows {
		return nil, core.NewSizeLimitError("rows", len(req.Rows), e.limits.MaxRows)
	}
	if err := req.Settings.Validate(); err != nil {
		return nil, err
	}
	groups := chart.GroupByCategory(req.Rows, req.Settings.Order)
	if e.limits.MaxCategories > 0 && len(groups) > e.limits.MaxCategories {
		return nil, core.NewSizeLimitError("categories", len(groups), e.limits.MaxCategories)
	}

	if e.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.limits.Timeout)
		defer cancel()
	}
	gd := guard.New(ctx, req.Live)
	if err := gd.Check("setup"); err != nil {
		return nil, err
	}

	caps := req.capabilities()
	metrics := ports.ResolveMetrics(caps)
	axis := caps.AxisMode()
	global := globalFacts(groups, axis)

	e.logger.Debug("request %s: %d rows, %d categories, metrics=%s axis=%s",
		req.ID, len(req.Rows), len(groups), metrics, axis)

	summaries, moments, densities, err := e.perCategory(ctx, req, groups, metrics, axis, global)
	if err != nil {
		e.logger.Warn("request %s aborted: %v", req.ID, err)
		return nil, err
	}

	if err := gd.Check("comparison"); err != nil {
		return nil, err
	}
	cmp := comparison.NewEngine(comparison.Options{
		Alpha:     req.Settings.Alpha,
		Reference: req.Settings.Reference,
	}).Compare(moments)

	if err := gd.Check("axis"); err != nil {
		return nil, err
	}
	ax, err := buildAxis(req, axis, global)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RequestID:    req.ID,
		SettingsHash: req.Settings.Hash,
		Categories:   chart.Names(groups),
		Summaries:    summaries,
		Densities:    densities,
		Comparison:   cmp,
		Axis:         ax,
		Metrics:      metrics,
		Elapsed:      time.Since(start),
	}
	e.logger.Info("request %s computed in %s", req.ID, res.Elapsed)
	return res, nil
}

// perCategory runs StatFence and DensitySegmenter for every category in
// parallel. Results are written by index so output order is the category order.
func (e *Engine) perCategory(ctx context.Context, req Request, groups []chart.CategoryRows,
	metrics chart.MetricSet, axis chart.AxisMode, global density.Global,
) ([]chart.CategorySummary, []chart.CategorySummary, []chart.CategoryDensity, error) {
	summarizer := fence.NewComputer(fence.Options{Metrics: metrics, Axis: axis})
	momenter := fence.NewComputer(fence.Options{
		Metrics: chart.NewMetricSet(chart.MetricCount, chart.MetricMean, chart.MetricStdDev),
		Axis:    axis,
	})
	segmenter := density.NewSegmenter(density.Options{
		BandwidthFactor: req.Settings.BandwidthFactor,
		Resolution:      req.Settings.Resolution,
		LimitToExtents:  req.Settings.LimitToExtents,
		Axis:            axis,
	})

	summaries := make([]chart.CategorySummary, len(groups))
	moments := make([]chart.CategorySummary, len(groups))
	densities := make([]chart.CategoryDensity, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limits.Workers)
	for i, cat := range groups {
		i, cat := i, cat
		g.Go(func() error {
			gd := guard.New(gctx, req.Live)
			if err := gd.Check("summary " + cat.Name); err != nil {
				return err
			}
			values := fence.Values(cat.Rows, axis)
			summaries[i] = summarizer.SummarizeValues(cat.Name, values)
			moments[i] = momenter.SummarizeValues(cat.Name, values)

			if err := gd.Check("density " + cat.Name); err != nil {
				return err
			}
			d, err := segmenter.Segment(gd, cat.Name, cat.Rows, global)
			if err != nil {
				return err
			}
			densities[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return summaries, moments, densities, nil
}

// globalFacts derives the dataset-wide range and marking flag.
func globalFacts(groups []chart.CategoryRows, axis chart.AxisMode) density.Global {
	g := density.Global{MinY: math.NaN(), MaxY: math.NaN(), AnyMarked: chart.AnyMarked(groups)}
	for _, cat := range groups {
		for _, r := range cat.Rows {
			if math.IsNaN(r.Y) || (axis.ExcludesNonPositive() && r.Y <= 0) {
				continue
			}
			if math.IsNaN(g.MinY) || r.Y < g.MinY {
				g.MinY = r.Y
			}
			if math.IsNaN(g.MaxY) || r.Y > g.MaxY {
				g.MaxY = r.Y
			}
		}
	}
	return g
}

func buildAxis(req Request, mode chart.AxisMode, global density.Global) (Axis, error) {
	ax := Axis{Mode: mode, Min: global.MinY, Max: global.MaxY, LinearPortion: req.Settings.LinearPortion}
	if math.IsNaN(global.MinY) {
		return ax, nil
	}

	if mode != chart.AxisAsinh {
		ax.Ticks = scale.LinearTicks(global.MinY, global.MaxY, req.Settings.TickCount)
		ax.VisibleTicks = ax.Ticks
		return ax, nil
	}

	s, err := scale.NewAsinh(req.Settings.LinearPortion)
	if err != nil {
		return ax, err
	}
	if err := s.SetDomain(global.MinY, global.MaxY); err != nil {
		return ax, err
	}
	ax.Ticks = s.Ticks(req.Settings.TickCount)
	ax.VisibleTicks = ax.Ticks
	if req.AxisHeight > 0 {
		s.SetRange(req.AxisHeight, 0)
		lh := req.LabelHeight
		if lh <= 0 {
			lh = defaultLabelHeight
		}
		ax.VisibleTicks = scale.VisibleTicks(s, ax.Ticks, lh, lh*4)
	}
	return ax, nil
}

// Panel is the result for one trellis panel.
type Panel struct {
	Name   string
	Result *Result
}

// ComputePanels splits rows by trellis value and computes each panel in
// first-seen panel order. All panels share the request id and fail together.
func (e *Engine) ComputePanels(ctx context.Context, req Request) ([]Panel, error) {
	if req.ID == "" {
		req.ID = core.NewRequestID()
	}
	panels := chart.GroupByTrellis(req.Rows, req.Settings.Order)
	out := make([]Panel, 0, len(panels))
	for _, p := range panels {
		var rows []chart.Row
		for _, cat := range p.Categories {
			rows = append(rows, cat.Rows...)
		}
		sub := req
		sub.Rows = rows
		res, err := e.Compute(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, Panel{Name: p.Name, Result: res})
	}
	return out, nil
}
