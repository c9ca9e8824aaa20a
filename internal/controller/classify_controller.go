package controller

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"style-classifier-be/internal/dto"
	"style-classifier-be/internal/pkg/serverutils"
	"style-classifier-be/internal/service"
)

type IClassifyController interface {
	RegisterRoutes(r fiber.Router)
	Classify(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
}

type classifyController struct {
	classifierService service.IClassifierService
}

func NewClassifyController(classifierService service.IClassifierService) IClassifyController {
	return &classifyController{
		classifierService: classifierService,
	}
}

func (c *classifyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/classify/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Classify)
	h.Post("confirm", c.Confirm)
	h.Post("reject", c.Reject)
	h.Post("select", c.Select)
}

// currentUserID pulls the authenticated user out of the JWT middleware
// locals. A signed token without a parseable user_id claim is rejected
// instead of falling through as the zero UUID.
func currentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}
	return userId, nil
}

func (c *classifyController) Classify(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing 'image' file field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable image upload")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable image upload")
	}

	res, prior, err := c.classifierService.Classify(ctx.Context(), userId, image)
	if err != nil {
		return err
	}
	if prior != nil {
		return ctx.JSON(serverutils.SuccessResponse("Image was classified before", prior))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success classify image", res))
}

func (c *classifyController) Confirm(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.classifierService.ConfirmTop(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success confirm style", res))
}

func (c *classifyController) Reject(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.classifierService.Reject(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reject top candidate", res))
}

func (c *classifyController) Select(ctx *fiber.Ctx) error {
	userId, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectStyleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.classifierService.Select(ctx.Context(), userId, req.Style)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select style", res))
}
