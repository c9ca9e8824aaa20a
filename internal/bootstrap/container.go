package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/controller"
	"style-classifier-be/internal/handler"
	"style-classifier-be/internal/pkg/logger"
	"style-classifier-be/internal/repository"
	"style-classifier-be/internal/repository/memory"
	"style-classifier-be/internal/repository/unitofwork"
	"style-classifier-be/internal/service"
	"style-classifier-be/internal/websocket"
	"style-classifier-be/pkg/embedding"
	pktNats "style-classifier-be/pkg/nats"
	"style-classifier-be/pkg/ranking"
)

type Container struct {
	// Controllers
	ClassifyController controller.IClassifyController
	StatsController    controller.IStatsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
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

	// 3. Embedding Provider
	var embedder embedding.ImageEmbedder
	if cfg.Embedding.Provider == "huggingface" {
		embedder = embedding.NewHuggingFaceProvider(
			cfg.Embedding.HuggingFaceKey,
			cfg.Embedding.HuggingFaceURL,
			cfg.Embedding.Model,
		)
		log.Printf("[INFO] Using Embedding Provider: HUGGINGFACE (%s)", cfg.Embedding.Model)
	} else {
		embedder = embedding.NewClipProvider(
			cfg.Embedding.ClipBaseURL,
			cfg.Embedding.Model,
		)
		log.Printf("[INFO] Using Embedding Provider: CLIP (%s)", cfg.Embedding.Model)
	}

	ranker, err := ranking.NewRanker(cfg.Styles, cfg.Ranking.TopK)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize ranker: %v", err)
	}

	// 4. In-Memory Coordination
	gate := memory.NewRequestGate()
	sessionRepo := memory.NewSessionRepository(
		cfg.Session.TTL,
		cfg.Session.CleanupInterval,
		service.NewSessionTeardown(gate, sysLogger),
	)

	// 5. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.ConfirmTopicName, pubSub)
	statsService := service.NewStatsService(uowFactory, cfg.Styles)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ConfirmTopicName,
		statsService,
		natsPub,
	)

	classifierService := service.NewClassifierService(
		uowFactory,
		gate,
		sessionRepo,
		embedder,
		ranker,
		cfg.Styles,
		publisherService,
		cfg.App.SpoolDir,
		sysLogger,
	)

	// 7. Notification System
	notifRepo := repository.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, cfg.Styles, wsLogger)

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 8. Controllers
	return &Container{
		ClassifyController:  controller.NewClassifyController(classifierService),
		StatsController:     controller.NewStatsController(statsService),
		ConsumerService:     consumerService,
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
