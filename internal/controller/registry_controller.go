// FILE: internal/controller/registry_controller.go
package controller

import (
	"feature-store-be/internal/dto"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/mapper"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRegistryController interface {
	RegisterRoutes(r fiber.Router)
	RegisterGroup(ctx *fiber.Ctx) error
	ListGroups(ctx *fiber.Ctx) error
	ShowGroup(ctx *fiber.Ctx) error
	ListFeatures(ctx *fiber.Ctx) error
	ShowFeature(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
	UpdateVersion(ctx *fiber.Ctx) error
}

type registryController struct {
	catalogService service.ICatalogService
	featureMapper  *mapper.FeatureMapper
}

func NewRegistryController(catalogService service.ICatalogService, featureMapper *mapper.FeatureMapper) IRegistryController {
	return &registryController{
		catalogService: catalogService,
		featureMapper:  featureMapper,
	}
}

func (c *registryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/registry/v1")
	h.Post("groups", c.RegisterGroup)
	h.Get("groups", c.ListGroups)
	h.Get("groups/:name", c.ShowGroup)
	h.Get("features", c.ListFeatures)
	h.Get("features/:entity/:name", c.ShowFeature)
	h.Patch("features/:entity/:name/status", c.UpdateStatus)
	h.Patch("features/:entity/:name/version", c.UpdateVersion)
}

func (c *registryController) RegisterGroup(ctx *fiber.Ctx) error {
	var req dto.RegisterGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	group, err := c.catalogService.RegisterGroup(ctx.Context(), c.featureMapper.ToGroupEntity(&req))
	if err != nil {
		return err
	}

	plan, err := c.catalogService.Plan(ctx.Context(), group.Name)
	if err != nil {
		return err
	}
	res := dto.RegisterGroupResponse{
		Name:         group.Name,
		Entity:       group.Entity,
		FeatureOrder: plan.Order,
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success register feature group", res))
}

func (c *registryController) ListGroups(ctx *fiber.Ctx) error {
	groups, err := c.catalogService.ListGroups(ctx.Context())
	if err != nil {
		return err
	}
	res := make([]dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		res = append(res, *c.featureMapper.ToGroupResponse(g))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list feature groups", res))
}

func (c *registryController) ShowGroup(ctx *fiber.Ctx) error {
	group, err := c.catalogService.GetGroup(ctx.Context(), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get feature group", c.featureMapper.ToGroupResponse(group)))
}

func (c *registryController) ListFeatures(ctx *fiber.Ctx) error {
	filter := service.ListFilter{
		Entity: ctx.Query("entity"),
		Tag:    ctx.Query("tag"),
		Status: entity.FeatureStatus(ctx.Query("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown status filter")
	}

	features, err := c.catalogService.ListFeatures(ctx.Context(), filter)
	if err != nil {
		return err
	}

	res := make([]dto.FeatureResponse, 0, len(features))
	for _, f := range features {
		res = append(res, *c.featureMapper.ToFeatureResponse(f.Group, f.FeatureMetadata))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list features", res))
}

func (c *registryController) ShowFeature(ctx *fiber.Ctx) error {
	meta, err := c.catalogService.GetFeature(ctx.Context(), ctx.Params("entity"), ctx.Params("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get feature", c.featureMapper.ToFeatureResponse(meta.Group, meta.FeatureMetadata)))
}

func (c *registryController) UpdateStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	meta, err := c.catalogService.UpdateStatus(ctx.Context(), ctx.Params("entity"), ctx.Params("name"), entity.FeatureStatus(req.Status))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update feature status", c.featureMapper.ToFeatureResponse(meta.Group, meta.FeatureMetadata)))
}

func (c *registryController) UpdateVersion(ctx *fiber.Ctx) error {
	var req dto.UpdateVersionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	meta, err := c.catalogService.UpdateVersion(ctx.Context(), ctx.Params("entity"), ctx.Params("name"), req.Version)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update feature version", c.featureMapper.ToFeatureResponse(meta.Group, meta.FeatureMetadata)))
}
