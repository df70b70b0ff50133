package k8s

import (
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ErrorKind classifies an API failure at the client boundary.
type ErrorKind string

const (
	KindForbidden ErrorKind = "forbidden"
	KindNotFound  ErrorKind = "notFound"
	KindConflict  ErrorKind = "conflict"
	KindTransient ErrorKind = "transient"
	KindUnknown   ErrorKind = "unknown"
)

// APIError is a Kubernetes API failure tagged with its kind. The orchestrator
// only ever sees these from mutating calls; notFound on delete and patch is
// swallowed by the client because the node being already gone is success.
type APIError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an APIError with kind notFound.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == KindNotFound
}

// wrapAPIError classifies err for the given operation. Returns nil for nil.
func wrapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case apierrors.IsForbidden(err):
		return &APIError{
			Kind:    KindForbidden,
			Op:      op,
			Message: "forbidden, check RBAC permissions",
			Err:     err,
		}
	case apierrors.IsNotFound(err):
		return &APIError{Kind: KindNotFound, Op: op, Message: "not found", Err: err}
	case apierrors.IsConflict(err):
		return &APIError{Kind: KindConflict, Op: op, Message: "conflict", Err: err}
	case apierrors.IsServerTimeout(err), apierrors.IsTimeout(err),
		apierrors.IsTooManyRequests(err), apierrors.IsServiceUnavailable(err):
		return &APIError{Kind: KindTransient, Op: op, Message: err.Error(), Err: err}
	default:
		return &APIError{Kind: KindUnknown, Op: op, Message: err.Error(), Err: err}
	}
}
