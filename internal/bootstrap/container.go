package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"byteme-assistant-be/internal/config"
	"byteme-assistant-be/internal/controller"
	"byteme-assistant-be/internal/handler"
	"byteme-assistant-be/internal/pkg/logger"
	"byteme-assistant-be/internal/pkg/mailer"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/internal/service"
	"byteme-assistant-be/internal/websocket"
	"byteme-assistant-be/pkg/agent"
	"byteme-assistant-be/pkg/agent/grader"
	"byteme-assistant-be/pkg/agent/reflection"
	"byteme-assistant-be/pkg/agent/response"
	agentRouter "byteme-assistant-be/pkg/agent/router"
	"byteme-assistant-be/pkg/embedding"
	"byteme-assistant-be/pkg/embedding/jina"
	"byteme-assistant-be/pkg/llm/factory"
	"byteme-assistant-be/pkg/memory"
	"byteme-assistant-be/pkg/search"
	"byteme-assistant-be/pkg/tools"

	pktNats "byteme-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController
	AuditController    controller.IAuditController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Streaming
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Internal Bus (document ingestion pipeline)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaEmbeddingProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaEmbeddingProvider(cfg.Keys.Jina, "jina-embeddings-v3")
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiEmbeddingProvider(cfg.Keys.GoogleGemini, "text-embedding-004")
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmAPIKey := cfg.Ai.LLMAPIKey
	if llmAPIKey == "" {
		llmAPIKey = cfg.Keys.Groq
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		llmAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
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
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Workflow Engine
	agentLogger := initAgentLogger()
	agentCfg := agent.FromAssistantConfig(cfg.Assistant)

	// Session tier: Redis with an in-process fallback, so a cache outage
	// costs cross-instance continuity but never a turn.
	sessionTTL := time.Duration(cfg.Assistant.SessionTTLSeconds) * time.Second
	sessionStore := memory.NewFailoverSessionStore(
		memory.NewRedisSessionStore(rdb, cfg.Assistant.SessionWindow, sessionTTL),
		memory.NewLocalSessionStore(cfg.Assistant.SessionWindow, sessionTTL),
		agentLogger,
	)

	// Durable tier: pgvector with a file fallback.
	var durableStore memory.DurableStore = memory.NewPgvectorDurableStore(uowFactory)
	if fileStore, err := memory.NewFileDurableStore(cfg.Assistant.MemoryDir); err != nil {
		log.Printf("[WARN] File memory fallback unavailable: %v", err)
	} else {
		durableStore = memory.NewFailoverDurableStore(durableStore, fileStore, agentLogger)
	}

	memoryManager := memory.NewManager(
		sessionStore,
		durableStore,
		embeddingProvider,
		cfg.Assistant.ShortTermTurns,
		cfg.Assistant.LongTermMemories,
		agentLogger,
	)

	registry := tools.NewRegistry()
	searcher := search.NewOrchestrator(embeddingProvider, agentLogger)
	retriever := &agent.SearchRetriever{
		Factory:  uowFactory,
		Searcher: searcher,
		Config:   agentCfg.Search,
	}

	orchestrator := agent.NewOrchestrator(
		agentCfg,
		memoryManager,
		agentRouter.NewRouter(llmProvider, registry, agentLogger),
		registry,
		search.NewQueryRewriter(llmProvider, agentLogger),
		retriever,
		grader.NewGrader(llmProvider, agentCfg.GradeThreshold, agentLogger),
		response.NewGenerator(agentLogger, llmProvider),
		reflection.NewVerifier(llmProvider, agentLogger),
		agentLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Assistant.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Assistant.IngestTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
		cfg.Assistant.ChunkSize,
		cfg.Assistant.ChunkOverlap,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	userService := service.NewUserService(uowFactory)
	documentService := service.NewDocumentService(uowFactory, publisherService)

	chatService := service.NewChatService(
		uowFactory,
		orchestrator,
		sessionStore,
		emailService,
		natsPub,
		wsHub,
	)

	// Audit trail worker. Start handles a missing subscriber itself.
	auditService := service.NewAuditService(uowFactory, natsSub, sysLogger)
	go auditService.Start()

	// 7. Handlers & Controllers
	streamHandler := handler.NewStreamHandler(natsPub, wsHub, wsLogger)

	return &Container{
		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,

		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService),
		UserController:     controller.NewUserController(userService),
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),
		AuditController:    controller.NewAuditController(auditService),

		ConsumerService: consumerService,
	}
}

// initAgentLogger gives the workflow engine its own log file. Turn-by-turn
// stage output is noisy and belongs next to, not inside, the app log.
func initAgentLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "agent.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[AGENT] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
