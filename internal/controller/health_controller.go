// FILE: internal/controller/health_controller.go
package controller

import (
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type healthController struct {
	online contract.OnlineStore
}

func NewHealthController(online contract.OnlineStore) IHealthController {
	return &healthController{online: online}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Check)
}

func (c *healthController) Check(ctx *fiber.Ctx) error {
	onlineStatus := "up"
	if err := c.online.Ping(ctx.Context()); err != nil {
		onlineStatus = "down"
	}
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"online_store": onlineStatus,
	}))
}
