// Package errs defines the error taxonomy shared by the pipeline:
// validation failures, missing resources, external service failures,
// empty retrieval results and missing service configuration. Handlers
// map these to HTTP status codes with errors.As.
package errs

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func NotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// ExternalServiceError tags a transport or upstream failure with the
// service that produced it (embedding, vector-index, completion).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service failure: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func External(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

// NoContentError signals that retrieval returned zero fragments. It is
// a soft condition: callers render a warning, not a failure.
type NoContentError struct {
	Namespace string
	Query     string
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("no relevant fragments found in namespace %s", e.Namespace)
}

func NoContent(namespace, query string) *NoContentError {
	return &NoContentError{Namespace: namespace, Query: query}
}

type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing service configuration: %s", strings.Join(e.Missing, ", "))
}

func Configuration(missing ...string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}
