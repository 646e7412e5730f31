package bootstrap

import (
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/llm/factory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	ThreadController controller.IThreadController
	ChatController   controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	sessionRepo := memory.NewSessionRepository()

	// 4. Services
	dataLayerService := service.NewDataLayerService(uowFactory, sessionRepo, pubSub, sysLogger)
	chatService := service.NewChatService(llmProvider, dataLayerService, sessionRepo, sysLogger)
	consumerService := service.NewConsumerService(pubSub, sysLogger)

	authService, err := service.NewAuthService(
		cfg.Auth.Username,
		cfg.Auth.Password,
		cfg.Auth.JwtSecret,
		sysLogger,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Auth Service: %v", err)
	}

	// 5. Controllers
	return &Container{
		AuthController:   controller.NewAuthController(authService),
		ThreadController: controller.NewThreadController(dataLayerService, consumerService),
		ChatController:   controller.NewChatController(chatService),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
