package validate

import (
	"fmt"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
)

// Engine evaluates declared constraints against computed values. Checks run in
// a fixed order (not_null, min/max, allowed_values) and the first failing
// constraint wins; failures are not aggregated.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Check returns nil when the value satisfies every constraint declared on the
// feature. A feature without a validation block accepts everything.
// present=false models an absent/null input.
func (e *Engine) Check(meta *entity.FeatureMetadata, value entity.FeatureValue, present bool) error {
	v := meta.Validation
	if v == nil {
		return nil
	}

	if !present {
		if v.NotNull {
			return &apperrors.ValidationFailure{Feature: meta.Name, Reason: "value is null"}
		}
		return nil
	}

	if v.MinValue != nil || v.MaxValue != nil {
		if !value.IsNumeric() {
			return &apperrors.ValidationFailure{
				Feature: meta.Name,
				Reason:  fmt.Sprintf("numeric bounds declared but value is %s", value.Kind),
			}
		}
		if v.MinValue != nil && value.Num < *v.MinValue {
			return &apperrors.ValidationFailure{Feature: meta.Name, Reason: "below min_value"}
		}
		if v.MaxValue != nil && value.Num > *v.MaxValue {
			return &apperrors.ValidationFailure{Feature: meta.Name, Reason: "above max_value"}
		}
	}

	if len(v.AllowedValues) > 0 {
		member := value.StoreString()
		for _, a := range v.AllowedValues {
			if a == member {
				return nil
			}
		}
		return &apperrors.ValidationFailure{
			Feature: meta.Name,
			Reason:  fmt.Sprintf("value %q not in allowed_values", member),
		}
	}

	return nil
}
