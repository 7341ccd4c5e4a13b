// FILE: internal/pkg/serverutils/error_middleware.go
package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/pkg/logger"
)

// ErrorHandlerMiddleware is installed as the Fiber ErrorHandler. It maps the
// domain error taxonomy onto HTTP statuses so controllers can return errors
// from the service layer untouched.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, kind := classify(err)

		if status >= fiber.StatusInternalServerError {
			log.Error("http", "request failed", map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
				"status": status,
				"error":  err.Error(),
			})
		}

		return c.Status(status).JSON(ErrorResponse{Message: err.Error(), Kind: kind})
	}
}

func classify(err error) (int, string) {
	var (
		notFound      *apperrors.NotFoundError
		validation    *apperrors.ValidationFailure
		missing       *apperrors.MissingFieldError
		unknown       *apperrors.UnknownFeatureError
		badTransform  *apperrors.InvalidTransformationError
		cyclic        *apperrors.CyclicDependencyError
		dupGroup      *apperrors.DuplicateGroupError
		dupFeature    *apperrors.DuplicateFeatureError
		mismatch      *apperrors.EntityMismatchError
		badTransition *apperrors.InvalidTransitionError
		downgrade     *apperrors.VersionDowngradeError
		unavailable   *apperrors.StoreUnavailableError
		partial       *apperrors.PartialWriteError
		compute       *apperrors.ComputeError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, "not_found"
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, "validation_failure"
	case errors.As(err, &missing):
		return fiber.StatusBadRequest, "missing_field"
	case errors.As(err, &unknown):
		return fiber.StatusBadRequest, "unknown_feature"
	case errors.As(err, &badTransform):
		return fiber.StatusBadRequest, "invalid_transformation"
	case errors.As(err, &cyclic):
		return fiber.StatusBadRequest, "cyclic_dependency"
	case errors.As(err, &compute):
		return fiber.StatusBadRequest, "compute_error"
	case errors.As(err, &dupGroup):
		return fiber.StatusConflict, "duplicate_group"
	case errors.As(err, &dupFeature):
		return fiber.StatusConflict, "duplicate_feature"
	case errors.As(err, &mismatch):
		return fiber.StatusConflict, "entity_mismatch"
	case errors.As(err, &badTransition):
		return fiber.StatusConflict, "invalid_transition"
	case errors.As(err, &downgrade):
		return fiber.StatusConflict, "version_downgrade"
	case errors.As(err, &unavailable):
		return fiber.StatusServiceUnavailable, "store_unavailable"
	case errors.As(err, &partial):
		return fiber.StatusBadGateway, "partial_write"
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ""
	default:
		return fiber.StatusInternalServerError, ""
	}
}
