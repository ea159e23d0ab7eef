package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ragdesk/services/booking"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Gemini.
	GoogleAPIKey       string `mapstructure:"GOOGLE_API_KEY"`
	GeminiModel        string `mapstructure:"GEMINI_MODEL"`
	EmbeddingModel     string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingDimension int    `mapstructure:"EMBEDDING_DIMENSION"`

	// Vector store.
	VectorStore      string `mapstructure:"VECTOR_STORE"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	MongoDatabase    string `mapstructure:"MONGO_DATABASE"`
	MongoCollection  string `mapstructure:"MONGO_COLLECTION"`
	MongoVectorIndex string `mapstructure:"MONGO_VECTOR_INDEX"`
	QdrantURL        string `mapstructure:"QDRANT_URL"`
	QdrantAPIKey     string `mapstructure:"QDRANT_API_KEY"`
	QdrantCollection string `mapstructure:"QDRANT_COLLECTION"`

	// Sessions.
	SessionBackend      string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionHistoryLimit int           `mapstructure:"SESSION_HISTORY_LIMIT"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Booking.
	NotifyAsync        bool          `mapstructure:"NOTIFY_ASYNC"`
	BookingIdleTimeout time.Duration `mapstructure:"BOOKING_IDLE_TIMEOUT"`
	FinalizeStepDelay  time.Duration `mapstructure:"FINALIZE_STEP_DELAY"`
	IntentKeywordsFile string        `mapstructure:"INTENT_KEYWORDS_FILE"`

	// Retrieval.
	RetrievalTopK         int     `mapstructure:"RETRIEVAL_TOP_K"`
	RetrievalOverfetch    int     `mapstructure:"RETRIEVAL_OVERFETCH"`
	RerankVectorWeight    float64 `mapstructure:"RERANK_VECTOR_WEIGHT"`
	RerankLexicalWeight   float64 `mapstructure:"RERANK_LEXICAL_WEIGHT"`
	RerankHeuristicWeight float64 `mapstructure:"RERANK_HEURISTIC_WEIGHT"`

	// Documents.
	DataDir        string `mapstructure:"DATA_DIR"`
	ChunkSize      int    `mapstructure:"CHUNK_SIZE"`
	ChunkOverlap   int    `mapstructure:"CHUNK_OVERLAP"`
	CleanDocuments bool   `mapstructure:"CLEAN_DOCUMENTS"`
	CleanChunkSize int    `mapstructure:"CLEAN_CHUNK_SIZE"`
	WatchDir       string `mapstructure:"WATCH_DIR"`

	// Google Cloud Speech credentials.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	v.SetDefault("GOOGLE_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-004")
	v.SetDefault("EMBEDDING_DIMENSION", 768)

	v.SetDefault("VECTOR_STORE", "memory")
	v.SetDefault("SQLITE_PATH", "data/vectors.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGO_DATABASE", "ragdesk")
	v.SetDefault("MONGO_COLLECTION", "chunks")
	v.SetDefault("MONGO_VECTOR_INDEX", "vector_index")
	v.SetDefault("QDRANT_URL", "")
	v.SetDefault("QDRANT_API_KEY", "")
	v.SetDefault("QDRANT_COLLECTION", "my-embeddings-index")

	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_HISTORY_LIMIT", 0)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("NOTIFY_ASYNC", false)
	v.SetDefault("BOOKING_IDLE_TIMEOUT", "0s")
	v.SetDefault("FINALIZE_STEP_DELAY", "0s")
	v.SetDefault("INTENT_KEYWORDS_FILE", "")

	v.SetDefault("RETRIEVAL_TOP_K", 3)
	v.SetDefault("RETRIEVAL_OVERFETCH", 2)
	v.SetDefault("RERANK_VECTOR_WEIGHT", 0.4)
	v.SetDefault("RERANK_LEXICAL_WEIGHT", 0.3)
	v.SetDefault("RERANK_HEURISTIC_WEIGHT", 0.3)

	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("CHUNK_SIZE", 1000)
	v.SetDefault("CHUNK_OVERLAP", 100)
	v.SetDefault("CLEAN_DOCUMENTS", true)
	v.SetDefault("CLEAN_CHUNK_SIZE", 30000)
	v.SetDefault("WATCH_DIR", "")

	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
}

// LoadConfig fills AppConfig from .env, config.yaml and the environment, in
// increasing priority.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every required key that is missing for the selected backends.
func (c Config) Validate() error {
	var missing []string
	if c.GoogleAPIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	switch c.VectorStore {
	case "memory", "sqlite":
	case "mongo":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "qdrant":
		if c.QdrantURL == "" {
			missing = append(missing, "QDRANT_URL")
		}
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q (want memory, sqlite, mongo or qdrant)", c.VectorStore)
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want memory or redis)", c.SessionBackend)
	}
	if len(missing) > 0 {
		return booking.NewConfigurationError(missing...)
	}
	return nil
}

// LoadKeywordTable reads the intent keyword override file, or returns the
// built-in table when path is empty.
func LoadKeywordTable(path string) (booking.KeywordTable, error) {
	if path == "" {
		return booking.DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return booking.KeywordTable{}, fmt.Errorf("read keyword table: %w", err)
	}
	var table booking.KeywordTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return booking.KeywordTable{}, fmt.Errorf("parse keyword table: %w", err)
	}
	return table, nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
