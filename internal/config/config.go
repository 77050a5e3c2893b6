package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//chunking - tunables, not a contract
	MaxChunkSize = 1000 //characters
	ChunkOverlap = 150

	//retrieval
	TopK              = 5
	ContextCharBudget = 6000

	//conversation history cap, oldest turns evicted first
	MaxConversationTurns = 20
	DefaultSession       = "default"

	//store namespaces
	DefaultStorePrefix = "legal_docs"
	StoreNameSeparator = "__"

	//per external call budgets
	ExtractTimeout    = 30 * time.Second
	EmbeddingTimeout  = 30 * time.Second
	SearchTimeout     = 15 * time.Second
	GenerationTimeout = 60 * time.Second

	//one retry per provider call, then surface the failure
	ProviderRetryBackoff = 2 * time.Second

	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingBatchSize                  = 100

	//ingest worker pool
	MinIngestWorkers     int64 = 1
	MaxIngestWorkers     int64 = 4
	IdleWorkerTimeout          = 1 * time.Minute
	IngestTaskBufferSize       = 100

	//server timeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//upload limits, mirrors the allowed formats of the extraction adapter
	MaxUploadSize     = 100 << 20 //100mb per request
	MaxFileSize       = 50 << 20  //50mb per file
	TempUploadDirName = "uploaded_documents"

	//vectorDB
	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantKeepAliveTimeout = 30 * time.Second

	//embedded store, one persisted collection per (prefix, category)
	ChromemRoot     = "category_stores"
	ChromemCompress = false

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelName      = "gpt-4o-mini"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	ModelContext = "You are a legal document analysis assistant. Answer only from the provided excerpts. " +
		"Cite the source document for every claim. If the excerpts do not contain the answer, say so plainly."

	//reporting
	ReportDir            = "reports"
	CategorizationLog    = "reports/categorizations.jsonl"
	ReportFilenamePrefix = "categorization_report"

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisConversationDB  = 0
	RedisConversationTTL = 24 * time.Hour
)

// EnvOr reads an environment override, falling back to the compiled default.
func EnvOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
