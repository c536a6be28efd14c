package service

import (
	"context"
	"errors"
	"strings"

	"alertctl/internal/core/engine"
	"alertctl/internal/core/runpool"
	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/google/uuid"
)

// Preview builds an unsaved config from the document and runs it on the preview pool
// under the preview deadline. The run is cancelled on return whatever the outcome
func (s *Svc) Preview(ctx context.Context, in domain.PreviewInput) (engine.Result, error) {
	started := s.clk.Now()
	name := ""

	res, err := s.preview(ctx, in, &name)

	outcome := previewOutcome(err)
	elapsed := s.clk.Since(started)
	s.m.previews.WithLabelValues(outcome).Inc()
	s.m.duration.Observe(elapsed.Seconds())
	s.audit(ctx, domain.PreviewRun{
		RunID:     uuid.NewString(),
		Detection: name,
		Outcome:   outcome,
		Elapsed:   elapsed,
		Anomalies: len(res.Anomalies),
		At:        started,
	})
	return res, err
}

func (s *Svc) preview(ctx context.Context, in domain.PreviewInput, name *string) (engine.Result, error) {
	if err := CheckPayload(in.Document); err != nil {
		return engine.Result{}, err
	}
	var existing *domain.DetectionConfig
	if in.ExistingID != 0 {
		d, err := s.store.DetectionByID(ctx, in.ExistingID)
		if err != nil {
			return engine.Result{}, notFound(err, "can not find existing detection config %d", in.ExistingID)
		}
		existing = &d
	}

	cfg, err := s.buildDetection(ctx, in.Document, domain.TuningRange{Start: in.TuningStart, End: in.TuningEnd}, existing)
	if err != nil {
		return engine.Result{}, err
	}
	if existing == nil {
		cfg.ID = domain.PreviewID
	}
	*name = cfg.Name

	iv := window.Interval{Start: in.Start, End: in.End}
	h, err := runpool.Submit(s.pool, ctx, s.previewTimeout, func(ctx context.Context) (engine.Result, error) {
		return s.engine.Run(ctx, cfg.Pipeline(), iv)
	})
	if err != nil {
		if errors.Is(err, runpool.ErrQueueFull) {
			return engine.Result{}, perr.Wrapf(err, perr.ErrorCodeServerBusy, "Server is busy running previews. Please retry later.")
		}
		return engine.Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "preview pool unavailable")
	}
	defer h.Cancel()

	res, err := h.Wait()
	if errors.Is(err, runpool.ErrTimeout) {
		s.log.Warn().Str("detection", cfg.Name).Dur("timeout", s.previewTimeout).Msg("preview timed out")
		return engine.Result{}, perr.Wrapf(err, perr.ErrorCodeTimeout, "Preview has timed out")
	}
	if err != nil {
		return engine.Result{}, err
	}
	return res, nil
}

func previewOutcome(err error) string {
	if err == nil {
		return domain.OutcomeOK
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeDuplicateKey:
		return domain.OutcomeInvalid
	case perr.ErrorCodeTimeout:
		return domain.OutcomeTimeout
	case perr.ErrorCodeServerBusy:
		return domain.OutcomeBusy
	default:
		return domain.OutcomeFailed
	}
}

func (s *Svc) audit(ctx context.Context, run domain.PreviewRun) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(context.WithoutCancel(ctx), run); err != nil {
		s.log.Warn().Err(err).Str("run", run.RunID).Msg("preview audit failed")
	}
}

// Baseline returns the predicted series of the first baseline-capable component whose key
// starts with RuleName. URN "<dataset>:<metric>" overrides the document's metric
func (s *Svc) Baseline(ctx context.Context, in domain.BaselineInput) (engine.Prediction, error) {
	if err := CheckPayload(in.Document); err != nil {
		return engine.Prediction{}, err
	}
	cfg, err := s.buildDetection(ctx, in.Document, domain.TuningRange{Start: in.TuningStart, End: in.TuningEnd}, nil)
	if err != nil {
		return engine.Prediction{}, err
	}

	var comp *engine.Component
	for i := range cfg.Components {
		c := cfg.Components[i]
		if c.BaselineCapable() && strings.HasPrefix(c.Key, in.RuleName) {
			comp = &c
			break
		}
	}
	if comp == nil {
		return engine.Prediction{Time: []int64{}, Value: []float64{}}, nil
	}

	dataset, metric := cfg.Dataset, cfg.Metric
	if in.URN != "" {
		ds, m, ok := strings.Cut(in.URN, ":")
		if !ok || ds == "" || m == "" {
			return engine.Prediction{}, perr.InvalidArgf("urn must look like <dataset>:<metric>, got %q", in.URN)
		}
		dataset, metric = ds, m
	}

	ctx, cancel := context.WithTimeout(ctx, s.previewTimeout)
	defer cancel()
	return s.engine.Predict(ctx, *comp, dataset, metric, window.Interval{Start: in.Start, End: in.End})
}
