package net

import (
	"net/http"

	perr "alertctl/internal/platform/errors"
)

// Wire is the envelope every response body is wrapped in
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	MoreInfo   string         `json:"more-info,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Success builds a success envelope for status
func Success(status int, data any, reqID string) (int, Wire) {
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Error builds an error envelope. The status and code come from the error taxonomy,
// message and more-info from the outermost error carrying them
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return Success(http.StatusOK, nil, reqID)
	}
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Message:    w.Message,
		MoreInfo:   w.MoreInfo,
		RequestID:  reqID,
	}
}
