// FILE: internal/controller/serving_controller.go
package controller

import (
	"errors"
	"strings"
	"time"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/dto"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IServingController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	GetOnlineFeatures(ctx *fiber.Ctx) error
	GetHistoricalFeatures(ctx *fiber.Ctx) error
}

type servingController struct {
	ingestionService service.IIngestionService
}

func NewServingController(ingestionService service.IIngestionService) IServingController {
	return &servingController{
		ingestionService: ingestionService,
	}
}

func (c *servingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/serving/v1")
	h.Post("ingest/:group/:entityId", c.Ingest)
	h.Get("features/:group/:entityId", c.GetOnlineFeatures)
	h.Get("historical/:group", c.GetHistoricalFeatures)
}

func (c *servingController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	record, err := c.ingestionService.Ingest(ctx.Context(), ctx.Params("group"), ctx.Params("entityId"), req.Values, req.Timestamp)

	// A partial write still served the record online, so the client gets the
	// record back together with a flag telling it to retry the ingestion.
	var partial *apperrors.PartialWriteError
	if err != nil && !errors.As(err, &partial) {
		return err
	}

	res := dto.IngestResponse{
		EntityID:     record.EntityID,
		Group:        record.GroupName,
		Timestamp:    record.Timestamp,
		Values:       record.StringValues(),
		PartialWrite: partial != nil,
	}
	if partial != nil {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Record served online, historical append pending retry", res))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success ingest record", res))
}

func (c *servingController) GetOnlineFeatures(ctx *fiber.Ctx) error {
	var names []string
	if raw := ctx.Query("names"); raw != "" {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}

	values, err := c.ingestionService.GetOnlineFeatures(ctx.Context(), ctx.Params("group"), ctx.Params("entityId"), names)
	if err != nil {
		return err
	}

	res := dto.OnlineFeaturesResponse{
		EntityID: ctx.Params("entityId"),
		Group:    ctx.Params("group"),
		Values:   values,
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get online features", res))
}

func (c *servingController) GetHistoricalFeatures(ctx *fiber.Ctx) error {
	start, err := parseDateQuery(ctx.Query("start"), false)
	if err != nil {
		return err
	}
	end, err := parseDateQuery(ctx.Query("end"), true)
	if err != nil {
		return err
	}

	group := ctx.Params("group")
	seq, err := c.ingestionService.GetHistoricalFeatures(ctx.Context(), group, start, end)
	if err != nil {
		return err
	}

	res := dto.HistoricalResponse{Group: group, Records: []dto.HistoricalRecord{}}
	for record, scanErr := range seq {
		if scanErr != nil {
			return scanErr
		}
		res.Records = append(res.Records, dto.HistoricalRecord{
			EntityID:  record.EntityID,
			Timestamp: record.Timestamp,
			Values:    record.StringValues(),
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get historical features", res))
}

// parseDateQuery accepts YYYY-MM-DD dates. Both bounds are inclusive, so the
// end date is pushed to the last instant of its day.
func parseDateQuery(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	t = t.UTC()
	return &t, nil
}
