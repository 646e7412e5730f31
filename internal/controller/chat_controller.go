package controller

import (
	"context"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{chatService: chatService}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("/session", c.CreateSession)
	h.Post("/settings", c.UpdateSettings)
	h.Post("/resume", c.Resume)
	h.Post("/send", c.SendChat)

	h.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("/ws", websocket.New(c.serveWs))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, _ := ctx.Locals("user_id").(string)

	res, err := c.chatService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Session created",
		"data":    res,
	})
}

func (c *chatController) UpdateSettings(ctx *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	if err := c.chatService.UpdateSettings(ctx.Context(), &req); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Settings updated",
	})
}

// SendChat is the non-streaming variant: the reply arrives in one response
// body. Streaming clients use the websocket endpoint instead.
func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), &req, nil)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Reply generated",
		"data":    res,
	})
}

func (c *chatController) Resume(ctx *fiber.Ctx) error {
	var req dto.ResumeThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.chatService.Resume(ctx.Context(), &req)
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
		"message": "Thread resumed",
		"data":    res,
	})
}

type wsChatFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	ThreadId string `json:"thread_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// serveWs runs the streaming chat loop over one websocket connection. Each
// inbound frame is a SendChatRequest; tokens stream back as they arrive from
// the model, terminated by a "done" frame carrying the thread id.
func (c *chatController) serveWs(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var req dto.SendChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.SessionId == "" || req.Content == "" {
			_ = conn.WriteJSON(wsChatFrame{Type: "error", Error: "session_id and content are required"})
			continue
		}

		onToken := func(token string) error {
			return conn.WriteJSON(wsChatFrame{Type: "token", Content: token})
		}

		// The fasthttp request context dies with the upgrade; the stream
		// lives as long as the connection.
		res, err := c.chatService.SendChat(context.Background(), &req, onToken)
		if err != nil {
			_ = conn.WriteJSON(wsChatFrame{Type: "error", Error: err.Error()})
			continue
		}

		if err := conn.WriteJSON(wsChatFrame{Type: "done", ThreadId: res.ThreadId}); err != nil {
			return
		}
	}
}
