package http

import (
	"fmt"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/logger"
)

// Operation labels shown to callers
const (
	opCreating         = "CREATING"
	opUpdating         = "UPDATING"
	opCreatingUpdating = "CREATING/UPDATING"
	opRunning          = "RUNNING"
)

// request names what a failed call was doing
type request struct {
	kind string // alert, detection, subscription, preview
	op   string
	verb string // create, update, create or update
	size int
}

// decorate gives err the caller-facing message and more-info of its kind.
// The code, and so the status, is left as classified
func (h *handlers) decorate(req request, err error) error {
	if err == nil {
		return nil
	}
	log := logger.Named("alerts.http")
	chain := perr.CauseChain(err, h.depth)

	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeDuplicateKey, perr.ErrorCodeInvalidArgument, perr.ErrorCodeJSON:
		log.Warn().Err(err).Str("op", req.op).Str("kind", req.kind).Int("payload_bytes", req.size).
			Msg("validation error")
		msg := err.Error()
		if e, ok := perr.As(err); ok {
			msg = e.Message()
		}
		return perr.WithMessage(err, fmt.Sprintf("Validation Error in %s! %s", req.kind, msg))

	case perr.ErrorCodeUnauthorized:
		log.Warn().Err(err).Str("op", req.op).Str("kind", req.kind).Msg("authorization error")
		err = perr.WithMessage(err, fmt.Sprintf("Authorization error! You do not have permissions to %s this %s config", req.op, req.kind))
		return perr.WithDetail(err, fmt.Sprintf("Configure owners property in %s config", req.kind))

	case perr.ErrorCodeServerBusy:
		log.Warn().Err(err).Str("op", req.op).Str("kind", req.kind).Msg("rejected, server busy")
		return perr.WithDetail(err, chain)

	default:
		log.Error().Err(err).Str("op", req.op).Str("kind", req.kind).Int("payload_bytes", req.size).
			Msg("request failed")
		err = perr.WithMessage(err, fmt.Sprintf("Failed to %s the %s. Reach out to the alerting team.", req.verb, req.kind))
		return perr.WithDetail(err, chain)
	}
}

// decoratePreview follows the preview endpoint's own wording
func (h *handlers) decoratePreview(size int, err error) error {
	if err == nil {
		return nil
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeDuplicateKey, perr.ErrorCodeInvalidArgument, perr.ErrorCodeJSON:
		return h.decorate(request{kind: "PREVIEW", op: opRunning, size: size}, err)
	case perr.ErrorCodeTimeout:
		return perr.WithDetail(perr.WithMessage(err, "Preview has timed out"), "")
	case perr.ErrorCodeServerBusy:
		return perr.WithDetail(err, perr.CauseChain(err, h.depth))
	default:
		logger.Named("alerts.http").Error().Err(err).Int("payload_bytes", size).Msg("preview failed")
		chain := perr.CauseChain(err, h.depth)
		return perr.WithDetail(perr.WithMessage(err, "Failed to run the preview."), chain)
	}
}
