package controller

import (
	"github.com/gofiber/fiber/v2"

	"style-classifier-be/internal/pkg/serverutils"
	"style-classifier-be/internal/service"
)

type IStatsController interface {
	RegisterRoutes(r fiber.Router)
	History(ctx *fiber.Ctx) error
	Recent(ctx *fiber.Ctx) error
	Popularity(ctx *fiber.Ctx) error
}

type statsController struct {
	statsService service.IStatsService
}

func NewStatsController(statsService service.IStatsService) IStatsController {
	return &statsController{
		statsService: statsService,
	}
}

func (c *statsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/stats/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("history", c.History)
	h.Get("recent", c.Recent)
	h.Get("popularity", c.Popularity)
}

func (c *statsController) History(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.statsService.History(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list style history", res))
}

func (c *statsController) Recent(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.statsService.MostRecent(ctx.Context(), userId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.JSON(serverutils.SuccessResponse[any]("No confirmed style yet", nil))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show recent style", res))
}

func (c *statsController) Popularity(ctx *fiber.Ctx) error {
	res, err := c.statsService.Popularity(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list style popularity", res))
}
