package bootstrap

import (
	"context"
	"fmt"

	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/config"
	"intelliprep-notes-be/internal/controller"
	"intelliprep-notes-be/internal/handler"
	"intelliprep-notes-be/internal/interview"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/pkg/serverutils"
	"intelliprep-notes-be/internal/repository/contract"
	"intelliprep-notes-be/internal/repository/memory"
	"intelliprep-notes-be/internal/service"
	"intelliprep-notes-be/internal/websocket"
	"intelliprep-notes-be/pkg/enrichment"
	"intelliprep-notes-be/pkg/events"
	"intelliprep-notes-be/pkg/llm/factory"
	pktNats "intelliprep-notes-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	NoteController      controller.INoteController
	AIController        controller.IAIController
	InterviewController controller.IInterviewController
	SessionController   controller.ISessionController
	SpeechController    controller.ISpeechController

	// WebSockets
	WebsocketHandler *handler.WebsocketHandler
	WebSocketHub     *websocket.Hub

	// Background Services (started by Start)
	ConsumerService   service.IConsumerService
	CompletionHandler *interview.CompletionHandler

	Sessions *auth.Manager
	Stores   *memory.StoreRegistry
	Logger   logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
	unsub   func()
}

// NewContainer wires every component around repo. Broker and cache outages are
// logged and degrade to single-instance operation instead of failing startup.
func NewContainer(cfg *config.Config, repo contract.NoteRepository, sysLogger logger.ILogger) (*Container, error) {
	if cfg.Keys.JwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	secret := []byte(cfg.Keys.JwtSecret)

	// 1. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)
	changePublisher := service.NewChangePublisher(
		service.NewPublisherService(service.NoteChangesTopic, pubSub),
		sysLogger,
	)

	// 2. AI
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	sysLogger.Info("Bootstrap", "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})
	enricher := enrichment.NewClient(llmProvider, sysLogger)

	// 3. Sessions and per-user stores
	sessions := auth.NewManager()
	stores := memory.NewStoreRegistry(cfg.Store.IdleTTL, func(userId string) *notestore.Store {
		return notestore.New(repo, sessions.Session(userId), enricher,
			notestore.WithEventSink(changePublisher),
			notestore.WithLogger(sysLogger),
		)
	})
	unsub := sessions.Subscribe(stores.OnAuthEvent)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	}
	rdb := newRedisClient(cfg.App.RedisURL, sysLogger)

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	speechRelay := handler.NewSpeechRelay(wsHub, wsLogger)
	wsHub.Handle(websocket.TypeSpeechEvent, speechRelay)

	// Keep the interface nil when NATS is down.
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, service.NoteChangesTopic, wsHub, eventPublisher, sysLogger)

	importer := interview.NewImporter(cfg.Interview.SourceName, sysLogger)
	// Interview notes for users without a live session are written straight to the backend.
	offlineWriter := func(userId string) interview.NoteCreator {
		return notestore.New(repo, auth.StaticSession{UserId: userId, IsAuthenticated: true}, nil,
			notestore.WithEventSink(changePublisher),
			notestore.WithLogger(sysLogger),
		)
	}
	completionHandler := interview.NewCompletionHandler(importer, stores, sessions, offlineWriter, sysLogger)

	// 5. Controllers
	authMw := serverutils.JwtMiddleware(secret, sessions)

	return &Container{
		NoteController:      controller.NewNoteController(stores, authMw),
		AIController:        controller.NewAIController(enricher, authMw),
		InterviewController: controller.NewInterviewController(importer, stores, authMw),
		SessionController:   controller.NewSessionController(sessions, authMw, speechRelay),
		SpeechController:    controller.NewSpeechController(speechRelay, stores, cfg.Speech.Locale, authMw),

		WebsocketHandler: handler.NewWebsocketHandler(wsHub, secret, sessions, wsLogger),
		WebSocketHub:     wsHub,

		ConsumerService:   consumerService,
		CompletionHandler: completionHandler,

		Sessions: sessions,
		Stores:   stores,
		Logger:   sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
		unsub:   unsub,
	}, nil
}

// Start runs the hub and the background consumers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start change consumer: %w", err)
	}

	if c.natsSub != nil {
		err := c.natsSub.Subscribe(ctx, events.InterviewSessionCompleted, interview.DurableName, c.CompletionHandler.Handle)
		if err != nil {
			c.Logger.Warn("Bootstrap", "Interview importer not subscribed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.unsub != nil {
		c.unsub()
	}
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.pubSub != nil {
		_ = c.pubSub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis, websocket relay is local only", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
