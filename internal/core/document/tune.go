package document

import (
	"context"

	"alertctl/internal/core/engine"
	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
)

// Tuner fills unset MEAN_BASELINE std params from the metric's history
type Tuner struct {
	src engine.Source
}

// NewTuner returns a Tuner; a nil source leaves components untouched
func NewTuner(src engine.Source) *Tuner { return &Tuner{src: src} }

// Tune returns a copy of comps with std set to the sample deviation over iv.
// Components that already carry std keep it
func (t *Tuner) Tune(ctx context.Context, dataset, metric string, comps []engine.Component, iv window.Interval) ([]engine.Component, error) {
	out := make([]engine.Component, len(comps))
	need := false
	for i, c := range comps {
		params := make(map[string]float64, len(c.Params)+1)
		for k, v := range c.Params {
			params[k] = v
		}
		c.Params = params
		out[i] = c
		if _, ok := c.Params["std"]; c.Type == engine.MeanBaseline && !ok {
			need = true
		}
	}
	if !need || t == nil || t.src == nil {
		return out, nil
	}

	pts, err := t.src.Series(ctx, dataset, metric, iv)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "tune %s/%s", dataset, metric)
	}
	if len(pts) < 2 {
		return out, nil
	}
	_, std := engine.MeanStd(pts)
	for i := range out {
		if _, ok := out[i].Params["std"]; out[i].Type == engine.MeanBaseline && !ok {
			out[i].Params["std"] = std
		}
	}
	return out, nil
}
