// Package engine runs detection pipelines over metric time series.
// A pipeline is a dataset/metric pair plus a list of rule components; each component
// flags points that fall outside the band it predicts
package engine

import (
	"context"
	"math"
	"sort"

	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
)

// RuleType names a detection rule
type RuleType string

const (
	// MeanBaseline flags points more than k standard deviations from a trailing mean
	MeanBaseline RuleType = "MEAN_BASELINE"
	// Threshold flags points below min or above max
	Threshold RuleType = "THRESHOLD"
	// PercentageChange flags points that moved more than pct from the value offset points earlier
	PercentageChange RuleType = "PERCENTAGE_CHANGE"
)

// RuleTypes lists every supported rule in a stable order
var RuleTypes = []RuleType{MeanBaseline, Threshold, PercentageChange}

// Known reports whether t is a supported rule
func (t RuleType) Known() bool {
	for _, k := range RuleTypes {
		if k == t {
			return true
		}
	}
	return false
}

// BaselineCapable reports whether the rule predicts a baseline series
func (t RuleType) BaselineCapable() bool { return t == MeanBaseline || t == PercentageChange }

// Component is one computed rule of a pipeline
type Component struct {
	Key    string             `json:"key"`
	Rule   string             `json:"rule"`
	Type   RuleType           `json:"type"`
	Params map[string]float64 `json:"params,omitempty"`
}

// BaselineCapable reports whether the component can back a baseline preview
func (c Component) BaselineCapable() bool { return c.Type.BaselineCapable() }

// Param returns Params[name] or def when unset
func (c Component) Param(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	return def
}

// ComponentKey is the map key a rule is stored under
func ComponentKey(rule string, t RuleType) string { return rule + ":" + string(t) }

// Pipeline is a runnable detection
type Pipeline struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Dataset    string      `json:"dataset"`
	Metric     string      `json:"metric"`
	Components []Component `json:"components"`
}

// Point is one observation, TS in epoch milliseconds
type Point struct {
	TS    int64   `json:"ts"`
	Value float64 `json:"value"`
}

// Source loads a metric series over an interval, ordered by time
type Source interface {
	Series(ctx context.Context, dataset, metric string, iv window.Interval) ([]Point, error)
}

// Anomaly is a contiguous run of flagged points for one component
type Anomaly struct {
	Component string  `json:"component"`
	Start     int64   `json:"startTime"`
	End       int64   `json:"endTime"`
	Current   float64 `json:"current"`
	Baseline  float64 `json:"baseline"`
	Score     float64 `json:"score"`
}

// Result is the outcome of a pipeline run
type Result struct {
	DetectionID   int64     `json:"detectionId"`
	Anomalies     []Anomaly `json:"anomalies"`
	LastTimestamp int64     `json:"lastTimestamp"`
}

// Prediction is the per-point band a baseline-capable component predicts
type Prediction struct {
	Time    []int64   `json:"timestamp"`
	Value   []float64 `json:"value"`
	Current []float64 `json:"current,omitempty"`
	Upper   []float64 `json:"upper_bound,omitempty"`
	Lower   []float64 `json:"lower_bound,omitempty"`
}

// Engine evaluates pipelines against a Source
type Engine struct {
	src Source
}

// New builds an Engine. A nil source makes every run fail
func New(src Source) *Engine { return &Engine{src: src} }

// Source returns the configured series source, possibly nil
func (e *Engine) Source() Source { return e.src }

// checkEvery bounds how many points are scored between cancellation checks
const checkEvery = 256

// Run scores every component of p over iv and returns the merged anomalies.
// ctx cancellation is observed between components and while scoring
func (e *Engine) Run(ctx context.Context, p Pipeline, iv window.Interval) (Result, error) {
	res := Result{DetectionID: p.ID, Anomalies: []Anomaly{}, LastTimestamp: iv.End}
	if e.src == nil {
		return res, perr.Newf(perr.ErrorCodeUnavailable, "no time-series source configured")
	}
	pts, err := e.src.Series(ctx, p.Dataset, p.Metric, iv)
	if err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeUnknown, "load %s/%s", p.Dataset, p.Metric)
	}
	for _, c := range p.Components {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		band, err := score(ctx, c, pts)
		if err != nil {
			return res, err
		}
		res.Anomalies = append(res.Anomalies, band.anomalies(c.Key)...)
	}
	sort.SliceStable(res.Anomalies, func(i, j int) bool { return res.Anomalies[i].Start < res.Anomalies[j].Start })
	return res, nil
}

// Predict returns the band c predicts for dataset/metric over iv
func (e *Engine) Predict(ctx context.Context, c Component, dataset, metric string, iv window.Interval) (Prediction, error) {
	if !c.BaselineCapable() {
		return Prediction{}, perr.InvalidArgf("%s does not predict a baseline", c.Key)
	}
	if e.src == nil {
		return Prediction{}, perr.Newf(perr.ErrorCodeUnavailable, "no time-series source configured")
	}
	pts, err := e.src.Series(ctx, dataset, metric, iv)
	if err != nil {
		return Prediction{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "load %s/%s", dataset, metric)
	}
	b, err := score(ctx, c, pts)
	if err != nil {
		return Prediction{}, err
	}
	out := Prediction{}
	for i := range b.pts {
		if !b.valid[i] {
			continue
		}
		out.Time = append(out.Time, b.pts[i].TS)
		out.Value = append(out.Value, b.base[i])
		out.Current = append(out.Current, b.pts[i].Value)
		out.Upper = append(out.Upper, b.upper[i])
		out.Lower = append(out.Lower, b.lower[i])
	}
	return out, nil
}

// band holds per-point predictions; valid is false where the rule has no history yet
type band struct {
	pts                []Point
	base, upper, lower []float64
	valid              []bool
}

func newBand(pts []Point) band {
	n := len(pts)
	return band{
		pts:   pts,
		base:  make([]float64, n),
		upper: make([]float64, n),
		lower: make([]float64, n),
		valid: make([]bool, n),
	}
}

func (b band) outside(i int) bool {
	return b.valid[i] && (b.pts[i].Value > b.upper[i] || b.pts[i].Value < b.lower[i])
}

// anomalies merges consecutive flagged points into one anomaly, keeping the worst deviation
func (b band) anomalies(key string) []Anomaly {
	var out []Anomaly
	var cur *Anomaly
	for i := range b.pts {
		if !b.outside(i) {
			cur = nil
			continue
		}
		dev := math.Abs(b.pts[i].Value - b.base[i])
		if cur == nil {
			out = append(out, Anomaly{
				Component: key,
				Start:     b.pts[i].TS,
				End:       b.pts[i].TS,
				Current:   b.pts[i].Value,
				Baseline:  b.base[i],
				Score:     dev,
			})
			cur = &out[len(out)-1]
			continue
		}
		cur.End = b.pts[i].TS
		if dev > cur.Score {
			cur.Score, cur.Current, cur.Baseline = dev, b.pts[i].Value, b.base[i]
		}
	}
	return out
}

func score(ctx context.Context, c Component, pts []Point) (band, error) {
	b := newBand(pts)
	switch c.Type {
	case MeanBaseline:
		return b, meanBaseline(ctx, c, b)
	case Threshold:
		return b, threshold(ctx, c, b)
	case PercentageChange:
		return b, percentageChange(ctx, c, b)
	default:
		return b, perr.Validationf("unknown rule type %q", c.Type)
	}
}

func checkpoint(ctx context.Context, i int) error {
	if i%checkEvery == 0 {
		return ctx.Err()
	}
	return nil
}

// meanBaseline params: lookback (points, default 7), k (default 3), std (tuned, optional)
func meanBaseline(ctx context.Context, c Component, b band) error {
	lookback := int(c.Param("lookback", 7))
	if lookback < 1 {
		lookback = 1
	}
	k := c.Param("k", 3)
	fixed, hasStd := c.Params["std"]

	for i := lookback; i < len(b.pts); i++ {
		if err := checkpoint(ctx, i); err != nil {
			return err
		}
		win := b.pts[i-lookback : i]
		mean, sd := MeanStd(win)
		if hasStd {
			sd = fixed
		}
		b.base[i] = mean
		b.upper[i] = mean + k*sd
		b.lower[i] = mean - k*sd
		b.valid[i] = true
	}
	return nil
}

// threshold params: min, max (either may be absent)
func threshold(ctx context.Context, c Component, b band) error {
	lo := c.Param("min", math.Inf(-1))
	hi := c.Param("max", math.Inf(1))
	for i := range b.pts {
		if err := checkpoint(ctx, i); err != nil {
			return err
		}
		b.base[i] = math.Min(math.Max(b.pts[i].Value, lo), hi)
		b.upper[i] = hi
		b.lower[i] = lo
		b.valid[i] = true
	}
	return nil
}

// percentageChange params: offset (points, default 7), pct (fraction, default 0.2)
func percentageChange(ctx context.Context, c Component, b band) error {
	offset := int(c.Param("offset", 7))
	if offset < 1 {
		offset = 1
	}
	pct := math.Abs(c.Param("pct", 0.2))
	for i := offset; i < len(b.pts); i++ {
		if err := checkpoint(ctx, i); err != nil {
			return err
		}
		base := b.pts[i-offset].Value
		delta := math.Abs(base) * pct
		b.base[i] = base
		b.upper[i] = base + delta
		b.lower[i] = base - delta
		b.valid[i] = true
	}
	return nil
}

// MeanStd returns the mean and sample standard deviation of pts
func MeanStd(pts []Point) (mean, std float64) {
	n := len(pts)
	if n == 0 {
		return 0, 0
	}
	for _, p := range pts {
		mean += p.Value
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, p := range pts {
		d := p.Value - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
