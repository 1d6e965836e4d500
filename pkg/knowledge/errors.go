package knowledge

import (
	"errors"
	"fmt"
)

// ValidationError rejects bad input before commit: a past date on a one-time
// reminder, a recurrence interval below 1, malformed fields. It surfaces
// directly to the caller with the precise reason.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation: " + e.Reason
}

// NotFoundError is returned when a lookup or cancellation target does not
// exist or is not owned by the caller.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DependencyError wraps a failed call to an external collaborator (embedding
// gateway, decision oracle, notification port, event stream). Components catch
// it locally and degrade; it must never abort a poll cycle or batch.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e DependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %v", e.Dependency, e.Err)
}

func (e DependencyError) Unwrap() error { return e.Err }

// ConfigurationError marks an unsupported configuration, e.g. an unrecognized
// recurrence type. Fatal for the offending item only.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de DependencyError
	return errors.As(err, &de)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}
