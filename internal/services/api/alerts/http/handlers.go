// Package http provides http transport for alert configuration
package http

import (
	"fmt"
	stdhttp "net/http"
	"strconv"

	"alertctl/internal/modkit/httpkit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/logger"
	"alertctl/internal/services/api/alerts/domain"
)

// Options tunes the transport
type Options struct {
	// CauseDepth bounds the cause chain reported as more-info
	CauseDepth int
}

// Register mounts alert endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, o Options) {
	h := &handlers{svc: s, depth: o.CauseDepth}
	if h.depth <= 0 {
		h.depth = perr.DefaultChainDepth
	}

	httpkit.Post(r, "/create-alert", h.createAlert)

	httpkit.PostText(r, "/", h.createDetection)
	httpkit.PostText(r, "/create-or-update", h.createOrUpdateDetection)

	httpkit.PostText(r, "/subscription", h.createSubscription)
	httpkit.PostText(r, "/subscription/create-or-update", h.createOrUpdateSubscription)
	httpkit.PutText(r, "/subscription/{id}", h.updateSubscription)

	httpkit.PostText(r, "/preview", h.preview)
	httpkit.PostText(r, "/preview/baseline", h.baseline)
	httpkit.PostText(r, "/preview/{id}", h.preview)

	r.Put("/activation/{id}", httpkit.Call(h.toggle))
	httpkit.Get(r, "/list", h.list)
	r.Put("/notify/{id}", httpkit.Call(h.notify))

	httpkit.PutText(r, "/{id}", h.updateDetection)
}

type handlers struct {
	svc   domain.ServicePort
	depth int
}

func principal(r *stdhttp.Request) (domain.Principal, error) {
	name, err := httpkit.User(r)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{Name: name, SessionKey: httpkit.Session(r)}, nil
}

func tuning(r *stdhttp.Request) (domain.TuningRange, error) {
	start, err := httpkit.QueryInt64(r, "startTime")
	if err != nil {
		return domain.TuningRange{}, err
	}
	end, err := httpkit.QueryInt64(r, "endTime")
	if err != nil {
		return domain.TuningRange{}, err
	}
	return domain.TuningRange{Start: start, End: end}, nil
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// createAlert
// @Summary Create a detection and its subscription group together
// @Description Either both configs are saved or neither is
// @Tags Alerts
// @Accept json
// @Produce json
// @Param payload body domain.AlertInput true "Detection and subscription documents"
// @Param startTime query int false "Tuning window start (epoch ms)"
// @Param endTime query int false "Tuning window end (epoch ms)"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/create-alert [post]
func (h *handlers) createAlert(r *stdhttp.Request) (any, error) {
	req := request{kind: string(domain.KindAlert), op: opCreatingUpdating, verb: "create"}
	ids, err := func() (domain.AlertIDs, error) {
		p, err := principal(r)
		if err != nil {
			return domain.AlertIDs{}, err
		}
		in, err := httpkit.BindJSON[domain.AlertInput](r)
		if err != nil {
			return domain.AlertIDs{}, err
		}
		req.size = len(in.Detection) + len(in.Subscription)
		if in.Tuning, err = tuning(r); err != nil {
			return domain.AlertIDs{}, err
		}
		return h.svc.CreateAlert(r.Context(), p, in)
	}()
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:              "Alert was created successfully.",
		MoreInfo:             fmt.Sprintf("Record saved with detection id %d and subscription id %d", ids.DetectionID, ids.SubscriptionID),
		DetectionConfigID:    idString(ids.DetectionID),
		SubscriptionConfigID: idString(ids.SubscriptionID),
	}, nil
}

// createDetection
// @Summary Create a detection from its document
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param payload body string true "Detection document"
// @Param startTime query int false "Tuning window start (epoch ms)"
// @Param endTime query int false "Tuning window end (epoch ms)"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml [post]
func (h *handlers) createDetection(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindDetection), op: opCreating, verb: "create", size: len(doc)}
	id, err := func() (int64, error) {
		p, err := principal(r)
		if err != nil {
			return 0, err
		}
		tr, err := tuning(r)
		if err != nil {
			return 0, err
		}
		return h.svc.CreateDetection(r.Context(), p, doc, tr)
	}()
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:           "Alert was created successfully.",
		MoreInfo:          "Record saved with id " + idString(id),
		DetectionConfigID: idString(id),
	}, nil
}

// updateDetection
// @Summary Replace a detection's document
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param id path int true "Detection id"
// @Param payload body string true "Detection document"
// @Param startTime query int false "Tuning window start (epoch ms)"
// @Param endTime query int false "Tuning window end (epoch ms)"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Failure 404 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/{id} [put]
func (h *handlers) updateDetection(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindDetection), op: opUpdating, verb: "update", size: len(doc)}
	id, err := httpkit.PathInt64(r, "id")
	if err == nil {
		err = func() error {
			p, err := principal(r)
			if err != nil {
				return err
			}
			tr, err := tuning(r)
			if err != nil {
				return err
			}
			return h.svc.UpdateDetection(r.Context(), p, id, doc, tr)
		}()
	}
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:           "Alert was updated successfully.",
		MoreInfo:          "Record updated id " + idString(id),
		DetectionConfigID: idString(id),
	}, nil
}

// createOrUpdateDetection
// @Summary Create a detection, or update the one with the same name
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param payload body string true "Detection document"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/create-or-update [post]
func (h *handlers) createOrUpdateDetection(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindDetection), op: opCreatingUpdating, verb: "create or update", size: len(doc)}
	p, err := principal(r)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	id, err := h.svc.CreateOrUpdateDetection(r.Context(), p, doc)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:           "The alert was created/updated successfully.",
		MoreInfo:          "Record saved/updated with id " + idString(id),
		DetectionConfigID: idString(id),
	}, nil
}

// createSubscription
// @Summary Create a subscription group from its document
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param payload body string true "Subscription group document"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/subscription [post]
func (h *handlers) createSubscription(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindSubscription), op: opCreating, verb: "create", size: len(doc)}
	p, err := principal(r)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	id, err := h.svc.CreateSubscription(r.Context(), p, doc)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:              "The subscription group was created successfully.",
		DetectionAlertConfID: idString(id),
	}, nil
}

// updateSubscription
// @Summary Replace a subscription group's document
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param id path int true "Subscription group id"
// @Param payload body string true "Subscription group document"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Failure 404 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/subscription/{id} [put]
func (h *handlers) updateSubscription(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindSubscription), op: opUpdating, verb: "update", size: len(doc)}
	id, err := httpkit.PathInt64(r, "id")
	if err == nil {
		var p domain.Principal
		if p, err = principal(r); err == nil {
			err = h.svc.UpdateSubscription(r.Context(), p, id, doc)
		}
	}
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:              "The subscription group was updated successfully.",
		DetectionAlertConfID: idString(id),
	}, nil
}

// createOrUpdateSubscription
// @Summary Create a subscription group, or update the one with the same name
// @Tags Alerts
// @Accept plain
// @Produce json
// @Param payload body string true "Subscription group document"
// @Success 200 {object} domain.Reply
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/subscription/create-or-update [post]
func (h *handlers) createOrUpdateSubscription(r *stdhttp.Request, doc string) (any, error) {
	req := request{kind: string(domain.KindSubscription), op: opCreatingUpdating, verb: "create or update", size: len(doc)}
	p, err := principal(r)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	id, err := h.svc.CreateOrUpdateSubscription(r.Context(), p, doc)
	if err != nil {
		return nil, h.decorate(req, err)
	}
	return domain.Reply{
		Message:              "The subscription group was created/updated successfully.",
		MoreInfo:             "Record saved/updated with id " + idString(id),
		DetectionAlertConfID: idString(id),
	}, nil
}

func previewWindow(r *stdhttp.Request) (start, end, tStart, tEnd int64, err error) {
	for _, p := range []struct {
		name string
		dst  *int64
	}{{"start", &start}, {"end", &end}, {"tuningStart", &tStart}, {"tuningEnd", &tEnd}} {
		if *p.dst, err = httpkit.QueryInt64(r, p.name); err != nil {
			return
		}
	}
	return
}

// preview
// @Summary Dry run a detection document
// @Description With an id the run keeps that detection's identity. Nothing is saved
// @Tags Preview
// @Accept plain
// @Produce json
// @Param id path int false "Existing detection id"
// @Param payload body string true "Detection document"
// @Param start query int false "Window start (epoch ms)"
// @Param end query int false "Window end (epoch ms)"
// @Param tuningStart query int false "Tuning window start (epoch ms)"
// @Param tuningEnd query int false "Tuning window end (epoch ms)"
// @Success 200 {object} engine.Result
// @Failure 400 {object} httpkit.Envelope
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/preview [post]
// @Router /yaml/preview/{id} [post]
func (h *handlers) preview(r *stdhttp.Request, doc string) (any, error) {
	in := domain.PreviewInput{Document: doc}
	var err error
	if httpkit.Param(r, "id") != "" {
		in.ExistingID, err = httpkit.PathInt64(r, "id")
	}
	if err == nil {
		in.Start, in.End, in.TuningStart, in.TuningEnd, err = previewWindow(r)
	}
	if err != nil {
		return nil, h.decoratePreview(len(doc), err)
	}
	res, err := h.svc.Preview(r.Context(), in)
	if err != nil {
		return nil, h.decoratePreview(len(doc), err)
	}
	return res, nil
}

// baseline
// @Summary Predicted baseline of one rule
// @Description Any failure answers 200 with no data
// @Tags Preview
// @Accept plain
// @Produce json
// @Param payload body string true "Detection document"
// @Param start query int false "Window start (epoch ms)"
// @Param end query int false "Window end (epoch ms)"
// @Param urn query string false "dataset:metric, defaults to the document's metric"
// @Param tuningStart query int false "Tuning window start (epoch ms)"
// @Param tuningEnd query int false "Tuning window end (epoch ms)"
// @Param ruleName query string false "Rule name prefix"
// @Success 200 {object} engine.Prediction
// @Router /yaml/preview/baseline [post]
func (h *handlers) baseline(r *stdhttp.Request, doc string) (any, error) {
	in := domain.BaselineInput{
		Document: doc,
		URN:      httpkit.Query(r, "urn"),
		RuleName: httpkit.Query(r, "ruleName"),
	}
	var err error
	in.Start, in.End, in.TuningStart, in.TuningEnd, err = previewWindow(r)
	if err == nil {
		var pred any
		if pred, err = h.svc.Baseline(r.Context(), in); err == nil {
			return pred, nil
		}
	}
	logger.Named("alerts.http").Warn().Err(err).Str("urn", in.URN).Msg("baseline preview failed")
	return httpkit.OK(nil), nil
}

// toggle
// @Summary Set a detection's active flag
// @Tags Alerts
// @Produce json
// @Param id path int true "Detection id"
// @Param active query bool true "New active flag"
// @Success 200 {object} domain.Reply
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/activation/{id} [put]
func (h *handlers) toggle(r *stdhttp.Request) (any, error) {
	id, err := httpkit.PathInt64(r, "id")
	var active bool
	if err == nil {
		active, err = httpkit.QueryBool(r, "active")
	}
	if err == nil {
		err = h.svc.ToggleActivation(r.Context(), id, active)
	}
	if err != nil {
		msg := err.Error()
		if e, ok := perr.As(err); ok {
			msg = e.Message()
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "Failed to toggle activation: %s", msg)
	}
	return domain.Reply{
		Message: fmt.Sprintf("Alert activation toggled to %t for detection id %d", active, id),
	}, nil
}

// list
// @Summary Recently updated detections
// @Description Deprecated. At most the configured list limit, newest first
// @Tags Alerts
// @Produce json
// @Param dataset query string false "Dataset filter"
// @Param metric query string false "Metric filter"
// @Success 200 {array} domain.ListedDetection
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/list [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	out, err := h.svc.List(r.Context(), domain.ListQuery{
		Dataset: httpkit.Query(r, "dataset"),
		Metric:  httpkit.Query(r, "metric"),
	})
	if err != nil {
		return nil, perr.WithDetail(
			perr.Wrap(err, perr.ErrorCodeUnknown, "Failed to fetch all the detection configurations."),
			perr.CauseChain(err, h.depth))
	}
	return out, nil
}

// notify
// @Summary Queue a notification run for a subscription group
// @Tags Alerts
// @Produce json
// @Param id path int true "Subscription group id"
// @Success 200 {object} domain.Reply
// @Failure 500 {object} httpkit.Envelope
// @Router /yaml/notify/{id} [put]
func (h *handlers) notify(r *stdhttp.Request) (any, error) {
	id, err := httpkit.PathInt64(r, "id")
	if err == nil {
		err = h.svc.Notify(r.Context(), id)
	}
	if err != nil {
		return nil, perr.WithDetail(
			perr.Wrapf(err, perr.ErrorCodeUnknown, "Failed to trigger the notification for %s", httpkit.Param(r, "id")),
			perr.CauseChain(err, h.depth))
	}
	return domain.Reply{
		Message:              "Subscription was triggered successfully for " + idString(id),
		DetectionAlertConfID: idString(id),
	}, nil
}
