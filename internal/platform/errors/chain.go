package errors

import (
	stderrs "errors"
	"strings"
)

// DefaultChainDepth is the deepest cause level CauseChain reports by default
const DefaultChainDepth = 5

// CauseChain renders err and its causes as "==msg" segments, levels 0 through depth inclusive
// *Error levels contribute their own message only so wrapped text is not repeated
func CauseChain(err error, depth int) string {
	var sb strings.Builder
	for level := 0; level <= depth && err != nil; level++ {
		sb.WriteString("==")
		if e, ok := err.(*Error); ok {
			sb.WriteString(e.msg)
		} else {
			sb.WriteString(err.Error())
		}
		err = cause(err)
	}
	return sb.String()
}

// cause steps one level down; joined errors follow their first member
func cause(err error) error {
	if u := stderrs.Unwrap(err); u != nil {
		return u
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := j.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}
