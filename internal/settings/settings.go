// Package settings parses per-chart options from their serialized JSON form
// and caches the parsed value for as long as the serialized form is unchanged.
package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"catdist/domain/chart"
	"catdist/domain/core"
	"catdist/internal"
	"catdist/internal/config"
)

// Settings are the options one chart is computed with.
type Settings struct {
	Metrics         chart.MetricSet
	Axis            chart.AxisMode
	BandwidthFactor float64
	Resolution      int
	LimitToExtents  bool
	Alpha           float64
	LinearPortion   float64
	TickCount       int
	Reference       string
	Order           []string
	Hash            core.SettingsHash // fingerprint of the serialized source
}

// Defaults builds Settings from the configured chart defaults with every
// metric enabled.
func Defaults(c config.ChartConfig) Settings {
	return Settings{
		Metrics:         chart.FullMetricSet(),
		Axis:            chart.AxisLinear,
		BandwidthFactor: c.BandwidthFactor,
		Resolution:      c.DensityResolution,
		LimitToExtents:  c.LimitToExtents,
		Alpha:           c.Alpha,
		LinearPortion:   c.LinearPortion,
		TickCount:       c.TickCount,
	}
}

// MetricEnabled implements ports.Capabilities.
func (s Settings) MetricEnabled(m chart.Metric) bool { return s.Metrics.Has(m) }

// AxisMode implements ports.Capabilities.
func (s Settings) AxisMode() chart.AxisMode { return s.Axis }

// Parse reads serialized settings over defaults. Missing keys keep their
// default and unknown keys are ignored.
func Parse(serialized string, defaults Settings) (Settings, error) {
	out := defaults
	out.Order = append([]string(nil), defaults.Order...)
	out.Hash = core.NewSettingsHash(serialized)
	if strings.TrimSpace(serialized) == "" {
		return out, nil
	}
	if !gjson.Valid(serialized) {
		return Settings{}, fmt.Errorf("%w: malformed JSON", core.ErrInvalidSettings)
	}
	doc := gjson.Parse(serialized)
	if !doc.IsObject() {
		return Settings{}, fmt.Errorf("%w: expected an object", core.ErrInvalidSettings)
	}

	if r := doc.Get("metrics"); r.Exists() {
		var set chart.MetricSet
		var perr error
		r.ForEach(func(_, v gjson.Result) bool {
			m, err := chart.ParseMetric(v.String())
			if err != nil {
				perr = err
				return false
			}
			set = set.With(m)
			return true
		})
		if perr != nil {
			return Settings{}, fmt.Errorf("%w: %v", core.ErrInvalidSettings, perr)
		}
		out.Metrics = set
	}
	if r := doc.Get("axis"); r.Exists() {
		out.Axis = chart.ParseAxisMode(strings.ToLower(r.String()))
	}
	if r := doc.Get("bandwidthFactor"); r.Exists() {
		out.BandwidthFactor = r.Float()
	}
	if r := doc.Get("resolution"); r.Exists() {
		out.Resolution = int(r.Int())
	}
	if r := doc.Get("limitToExtents"); r.Exists() {
		out.LimitToExtents = r.Bool()
	}
	if r := doc.Get("alpha"); r.Exists() {
		out.Alpha = r.Float()
	}
	if r := doc.Get("linearPortion"); r.Exists() {
		out.LinearPortion = r.Float()
	}
	if r := doc.Get("tickCount"); r.Exists() {
		out.TickCount = int(r.Int())
	}
	if r := doc.Get("reference"); r.Exists() {
		out.Reference = r.String()
	}
	if r := doc.Get("order"); r.Exists() {
		out.Order = out.Order[:0]
		for _, v := range r.Array() {
			out.Order = append(out.Order, v.String())
		}
	}

	if err := out.Validate(); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// Validate checks numeric ranges.
func (s Settings) Validate() error {
	switch {
	case !(s.Alpha > 0 && s.Alpha < 1):
		return fmt.Errorf("%w: alpha %v outside (0, 1)", core.ErrInvalidSettings, s.Alpha)
	case !(s.BandwidthFactor > 0):
		return fmt.Errorf("%w: bandwidth factor must be positive", core.ErrInvalidSettings)
	case s.Resolution < 2:
		return fmt.Errorf("%w: resolution must be at least 2", core.ErrInvalidSettings)
	case !(s.LinearPortion > 0):
		return fmt.Errorf("%w: linear portion must be positive", core.ErrInvalidSettings)
	case s.TickCount <= 0:
		return fmt.Errorf("%w: tick count must be positive", core.ErrInvalidSettings)
	}
	return nil
}

// Cache holds the last parsed Settings keyed by the hash of their
// serialized source.
type Cache struct {
	mu       sync.Mutex
	defaults Settings
	source   core.SettingsHash
	value    Settings
	loaded   bool
	parses   int
	logger   *internal.Logger
}

// NewCache creates an empty cache.
func NewCache(defaults Settings) *Cache {
	return &Cache{defaults: defaults, logger: internal.DefaultLogger.With("settings")}
}

// Get returns the parsed form of serialized, parsing only when it differs
// from the previously seen source (ignoring surrounding whitespace). A
// failed parse leaves the cache as it was.
func (c *Cache) Get(serialized string) (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := core.NewSettingsHash(serialized)
	if c.loaded && c.source == key {
		return c.value, nil
	}
	s, err := Parse(serialized, c.defaults)
	if err != nil {
		c.logger.Warn("rejecting settings: %v", err)
		return Settings{}, err
	}
	c.parses++
	c.logger.Debug("parsed settings %s (metrics=%s axis=%s)", key.Short(), s.Metrics, s.Axis)
	c.source, c.value, c.loaded = key, s, true
	return s, nil
}

// Parses reports how many times the cache has re-parsed.
func (c *Cache) Parses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parses
}
