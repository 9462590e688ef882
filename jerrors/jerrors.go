// Package jerrors converts Go errors into the error entries of a GraphQL
// response.
//
// The code of an entry is the name of the grpc status code carried by the
// error ("Unknown" for plain errors). When the status has an ErrorInfo detail
// its reason is copied as well, so callers can tell apart failures that share
// a code.
package jerrors

import (
	"fmt"

	"github.com/graphql-go/graphql/gqlerrors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is the ErrorInfo domain used for errors raised by this module.
const Domain = "vidgraph.appointy.com"

// Error is a single entry of the "errors" list of a GraphQL response.
type Error struct {
	Message    string        `json:"message"`
	Locations  []Location    `json:"locations,omitempty"`
	Path       []interface{} `json:"path,omitempty"`
	Extensions *Extension    `json:"extensions"`
}

// Location points into the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Extension holds the machine readable part of an Error.
type Extension struct {
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an error carrying the given code and ErrorInfo reason.
func New(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	if reason == "" {
		return st.Err()
	}

	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: Domain})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// ConvertError converts err into a response entry.
func ConvertError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}

	return &Error{
		Message:    err.Error(),
		Extensions: ExtensionFor(err),
	}
}

// ExtensionFor returns the code and reason of err.
func ExtensionFor(err error) *Extension {
	st, ok := status.FromError(err)
	if !ok {
		return &Extension{Code: codes.Unknown.String()}
	}

	ext := &Extension{Code: st.Code().String()}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			ext.Reason = info.Reason
			break
		}
	}
	return ext
}

// ConvertFormatted converts an execution error reported by the GraphQL engine.
// The code and reason set by the failing resolver through its extensions are
// kept; other extension keys are dropped.
func ConvertFormatted(fe gqlerrors.FormattedError) *Error {
	out := &Error{
		Message:    fe.Message,
		Path:       fe.Path,
		Extensions: &Extension{Code: codes.Unknown.String()},
	}
	for _, loc := range fe.Locations {
		out.Locations = append(out.Locations, Location{Line: loc.Line, Column: loc.Column})
	}

	if code := fe.Extensions["code"]; code != nil {
		out.Extensions.Code = fmt.Sprint(code)
	}
	if reason := fe.Extensions["reason"]; reason != nil {
		out.Extensions.Reason = fmt.Sprint(reason)
	}
	return out
}

// ConvertFormattedList converts all errors of an execution result.
func ConvertFormattedList(list []gqlerrors.FormattedError) []*Error {
	if len(list) == 0 {
		return nil
	}

	out := make([]*Error, 0, len(list))
	for _, fe := range list {
		out = append(out, ConvertFormatted(fe))
	}
	return out
}
