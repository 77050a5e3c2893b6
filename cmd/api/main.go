package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/clauselens/clauselens/internal/categorize"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/conversation"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/handlers"
	"github.com/clauselens/clauselens/internal/mcpserver"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/internal/rag"
	"github.com/clauselens/clauselens/internal/rag/embedding"
	"github.com/clauselens/clauselens/internal/rag/embedding/googleEmbedding"
	"github.com/clauselens/clauselens/internal/rag/embedding/openaiEmbedding"
	"github.com/clauselens/clauselens/internal/rag/llm"
	"github.com/clauselens/clauselens/internal/rag/llm/gemini"
	"github.com/clauselens/clauselens/internal/rag/llm/openaiLLM"
	"github.com/clauselens/clauselens/internal/rag/retrieve"
	"github.com/clauselens/clauselens/internal/rag/vectorDB"
	"github.com/clauselens/clauselens/internal/rag/vectorDB/chromemDB"
	"github.com/clauselens/clauselens/internal/rag/vectorDB/qdrantDB"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/clauselens/clauselens/internal/server"
	"github.com/clauselens/clauselens/internal/stores"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

const version = "1.0.0"

var (
	listenAddr string
	mcpMode    bool
)

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.BoolVar(&mcpMode, "mcp", false, "serve over MCP stdio instead of HTTP")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	embedder, provider := initProviders(serviceContext, logger)
	if embedder == nil || provider == nil {
		logger.Error("embedding or llm provider failed to initialize, shutting down",
			"embedder", embedder != nil, "provider", provider != nil)
		return
	}

	backend := initBackend(serviceContext, logger)
	if backend == nil {
		logger.Error("no vector store backend available, shutting down")
		return
	}

	reportLog, err := report.NewLog(config.EnvOr("CATEGORIZATION_LOG", config.CategorizationLog))
	if err != nil {
		logger.Error("could not open categorization log, shutting down", "error", err)
		return
	}

	var conversations conversation.Store
	if client := conversation.GetRedisClient(serviceContext); client != nil {
		conversations = conversation.NewRedisStore(client)
	} else {
		logger.Warn("redis offline, conversations held in memory only")
		conversations = conversation.NewMemoryStore()
	}

	storeManager := stores.NewManager(backend, config.EnvOr("STORE_PREFIX", config.DefaultStorePrefix))
	router := retrieve.NewRouter(storeManager, backend, embedder)
	ragService := rag.NewService(router, provider)
	categorizer := categorize.NewCategorizer(provider, reportLog, os.Getenv("HEURISTIC_ONLY") != "")

	p := pipeline.New(
		extract.NewAdapter(),
		categorizer,
		embedder,
		storeManager,
		ragService,
		conversations,
		reportLog,
	)

	if mcpMode {
		if err := mcpserver.Serve(serviceContext, p, version); err != nil {
			logger.Error("mcp server stopped", "error", err)
		}
		p.Shutdown()
		return
	}

	handlers.InitServices(p)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		StopPipeline:     p.Shutdown,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("server stopped")
}

// initProviders picks the model stack from the environment: gemini by
// default, openai when LLM_PROVIDER=openai. Embeddings follow the provider
// so query vectors match the indexed ones.
func initProviders(ctx context.Context, logger *logger_i.Logger) (embedding.Embedder, llm.Provider) {
	selected := config.EnvOr("LLM_PROVIDER", "gemini")
	logger.Info("initializing model providers", "provider", selected)
	switch selected {
	case "openai":
		apikey := os.Getenv("OPENAI_API_KEY")
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, apikey),
			openaiLLM.GetOpenAIClient(ctx, config.OpenAIModelName, apikey)
	default:
		apikey := os.Getenv("GOOGLE_API_KEY")
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, apikey),
			gemini.GetGeminiClient(ctx, config.GeminiModelName, apikey)
	}
}

// initBackend prefers the embedded persisted store; qdrant is opt-in via
// VECTOR_BACKEND=qdrant and falls back to the embedded store when offline.
func initBackend(ctx context.Context, logger *logger_i.Logger) vectorDB.DataStore {
	if config.EnvOr("VECTOR_BACKEND", "chromem") == "qdrant" {
		if client := qdrantDB.GetQdrantClient(ctx); client != nil {
			logger.Info("using qdrant vector backend")
			return client
		}
		logger.Warn("qdrant unreachable, falling back to embedded store")
	}

	store, err := chromemDB.New(config.EnvOr("CHROMEM_ROOT", config.ChromemRoot), config.ChromemCompress)
	if err != nil {
		logger.Error("could not open embedded vector store", "error", err)
		return nil
	}
	logger.Info("using embedded vector backend", "root", config.EnvOr("CHROMEM_ROOT", config.ChromemRoot))
	return store
}
