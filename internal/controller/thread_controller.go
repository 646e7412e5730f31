package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IThreadController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	ListThreads(ctx *fiber.Ctx) error
	GetThread(ctx *fiber.Ctx) error
	UpdateThread(ctx *fiber.Ctx) error
	CreateStep(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
	GetThreadAuthor(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
}

type threadController struct {
	dataLayer service.IDataLayerService
	consumer  service.IConsumerService
}

func NewThreadController(dataLayer service.IDataLayerService, consumer service.IConsumerService) IThreadController {
	return &threadController{
		dataLayer: dataLayer,
		consumer:  consumer,
	}
}

func (c *threadController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/thread/v1", authMiddleware)
	h.Get("", c.ListThreads)
	h.Get("/stats", c.GetStats)
	h.Get("/:id", c.GetThread)
	h.Post("/:id", c.UpdateThread)
	h.Post("/:id/steps", c.CreateStep)
	h.Delete("/:id", c.DeleteThread)
	h.Get("/:id/author", c.GetThreadAuthor)
}

func (c *threadController) ListThreads(ctx *fiber.Ctx) error {
	var pagination dto.Pagination
	if err := ctx.QueryParser(&pagination); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pagination")
	}
	var filter dto.ThreadFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid filter")
	}

	res, err := c.dataLayer.ListThreads(ctx.Context(), &pagination, &filter)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Threads retrieved",
		"data":    res,
	})
}

func (c *threadController) GetThread(ctx *fiber.Ctx) error {
	res, err := c.dataLayer.GetThread(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": "Thread not found",
		})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Thread retrieved",
		"data":    res,
	})
}

func (c *threadController) UpdateThread(ctx *fiber.Ctx) error {
	var req dto.UpdateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.ThreadId = ctx.Params("id")
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.dataLayer.UpdateThread(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Thread updated",
		"data":    res,
	})
}

func (c *threadController) CreateStep(ctx *fiber.Ctx) error {
	var req dto.CreateStepRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.ThreadId = ctx.Params("id")
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	if err := c.dataLayer.CreateStep(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"code":    202,
		"message": "Step buffered",
	})
}

func (c *threadController) DeleteThread(ctx *fiber.Ctx) error {
	if err := c.dataLayer.DeleteThread(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Thread deleted",
	})
}

func (c *threadController) GetThreadAuthor(ctx *fiber.Ctx) error {
	threadId := ctx.Params("id")
	author, err := c.dataLayer.GetThreadAuthor(ctx.Context(), threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Thread author retrieved",
		"data": dto.ThreadAuthorResponse{
			ThreadId: threadId,
			Author:   author,
		},
	})
}

func (c *threadController) GetStats(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Reconciliation stats",
		"data":    c.consumer.Stats(),
	})
}
