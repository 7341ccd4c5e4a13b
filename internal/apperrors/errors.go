// FILE: internal/apperrors/errors.go
// Error taxonomy shared by the catalog, the engines and the coordinator.
// Every error kind the serving layer maps to a status lives here so services
// can return them unmodified and the middleware can classify with errors.As.
package apperrors

import "fmt"

// NotFoundError covers unknown groups, features and entity keys.
type NotFoundError struct {
	Kind string // "group", "feature", "record"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// DuplicateGroupError is a registration conflict on the group name.
type DuplicateGroupError struct {
	Group string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("feature group %q is already registered", e.Group)
}

// DuplicateFeatureError is a registration conflict on an (entity, name) pair.
type DuplicateFeatureError struct {
	Entity  string
	Feature string
	Group   string // group already owning the pair
}

func (e *DuplicateFeatureError) Error() string {
	return fmt.Sprintf("feature %s/%s is already registered in group %q", e.Entity, e.Feature, e.Group)
}

// EntityMismatchError reports a member feature whose entity differs from the
// group's entity.
type EntityMismatchError struct {
	Group         string
	Feature       string
	GroupEntity   string
	FeatureEntity string
}

func (e *EntityMismatchError) Error() string {
	return fmt.Sprintf("feature %q entity %q does not match group %q entity %q",
		e.Feature, e.FeatureEntity, e.Group, e.GroupEntity)
}

// CyclicDependencyError is raised at registration time when transformation
// source edges form a cycle (self references included).
type CyclicDependencyError struct {
	Group    string
	Features []string // members of the detected cycle, unordered
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("transformation dependencies form a cycle in group %q: %v", e.Group, e.Features)
}

// InvalidTransformationError rejects a transformation definition at
// registration time (bad expression, unknown native handle, unknown kind).
type InvalidTransformationError struct {
	Feature string
	Reason  string
}

func (e *InvalidTransformationError) Error() string {
	return fmt.Sprintf("invalid transformation on feature %q: %s", e.Feature, e.Reason)
}

// MissingFieldError reports a raw record lacking a field a transformation-less
// feature or a source reference needs.
type MissingFieldError struct {
	Feature string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("feature %q: required input field %q is missing", e.Feature, e.Field)
}

// ComputeError wraps a failure inside a transformation's compute step.
type ComputeError struct {
	Feature string
	Cause   error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("computing feature %q: %v", e.Feature, e.Cause)
}

func (e *ComputeError) Unwrap() error { return e.Cause }

// ValidationFailure is a constraint violation. First failing constraint wins;
// failures are never aggregated.
type ValidationFailure struct {
	Feature string
	Reason  string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed for feature %q: %s", e.Feature, e.Reason)
}

// InvalidTransitionError reports a lifecycle transition that violates
// monotonicity.
type InvalidTransitionError struct {
	Feature string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("feature %q: invalid status transition %s -> %s", e.Feature, e.From, e.To)
}

// VersionDowngradeError rejects a version update below the registered one.
type VersionDowngradeError struct {
	Feature string
	Current string
	Given   string
}

func (e *VersionDowngradeError) Error() string {
	return fmt.Sprintf("feature %q: version %s does not increase current %s", e.Feature, e.Given, e.Current)
}

// StoreUnavailableError wraps adapter I/O failures from either tier.
type StoreUnavailableError struct {
	Tier  string // "online" or "offline"
	Cause error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Tier, e.Cause)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Cause }

// PartialWriteError signals that the online write succeeded but the historical
// append failed. Callers retry the append independently; appends are keyed by
// (entityId, timestamp) so retries deduplicate instead of duplicating rows.
type PartialWriteError struct {
	Group    string
	EntityID string
	Cause    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("online write ok, historical append failed for %s/%s: %v", e.Group, e.EntityID, e.Cause)
}

func (e *PartialWriteError) Unwrap() error { return e.Cause }

// UnknownFeatureError reports a projection over a name the group does not hold.
type UnknownFeatureError struct {
	Group   string
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("feature %q is not a member of group %q", e.Feature, e.Group)
}
