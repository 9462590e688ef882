package node

import (
	"fmt"

	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/globalid"
	"go.appointy.com/vidgraph/jerrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Resolution failures. Every error returned by a Resolver matches at most one
// of them with errors.Is.
var (
	// ErrMalformedID means the id does not decode to a (kind, local key) pair.
	ErrMalformedID = globalid.ErrMalformed

	// ErrUnknownKind means the id names a kind nothing was registered for.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrNotFound means the kind is known but has no object for the local key.
	// Fetchers may return it (wrapped or not) to report a missing object.
	ErrNotFound = errors.New("not found")

	// ErrUnclassifiable means no registered classifier recognises the object.
	ErrUnclassifiable = errors.New("unclassifiable object")
)

// Configuration errors returned by Builder.Build.
var (
	ErrDuplicateKind = errors.New("kind registered twice with different fetchers")
	ErrInvalidKind   = globalid.ErrInvalidKind
	ErrMissingFunc   = errors.New("fetcher and classifier are required")
)

// Error describes a failed resolution.
type Error struct {
	Op   string // "resolve" or "identify"
	ID   string // global id, when known
	Kind string // kind, when known
	Key  string // local key, when known
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != "" && e.Key != "":
		return fmt.Sprintf("node: %s %s %q: %v", e.Op, e.Kind, e.Key, e.Err)
	case e.ID != "":
		return fmt.Sprintf("node: %s %q: %v", e.Op, e.ID, e.Err)
	default:
		return fmt.Sprintf("node: %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Reason returns the ErrorInfo reason for e, or "" if e wraps a fetcher error
// that is none of the resolution failures.
func (e *Error) Reason() string {
	switch {
	case errors.Is(e.Err, ErrMalformedID):
		return "MALFORMED_ID"
	case errors.Is(e.Err, ErrUnknownKind):
		return "UNKNOWN_KIND"
	case errors.Is(e.Err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(e.Err, ErrUnclassifiable):
		return "UNCLASSIFIABLE"
	}
	return ""
}

func (e *Error) code() codes.Code {
	switch e.Reason() {
	case "MALFORMED_ID", "UNKNOWN_KIND":
		return codes.InvalidArgument
	case "NOT_FOUND":
		return codes.NotFound
	case "UNCLASSIFIABLE":
		return codes.Internal
	}
	if st, ok := status.FromError(e.Err); ok {
		return st.Code()
	}
	return codes.Unknown
}

// GRPCStatus lets status.FromError and jerrors read the code and reason of e.
func (e *Error) GRPCStatus() *status.Status {
	st, _ := status.FromError(jerrors.New(e.code(), e.Reason(), e.Error()))
	return st
}

// Extensions is picked up by the GraphQL engine when e fails a resolver.
func (e *Error) Extensions() map[string]interface{} {
	ext := jerrors.ExtensionFor(e)
	out := map[string]interface{}{"code": ext.Code}
	if ext.Reason != "" {
		out["reason"] = ext.Reason
	}
	return out
}
