package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	SQLite    SQLiteConfig
	Milvus    MilvusConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Ingest    IngestConfig
	Summary   SummaryConfig
	Caption   CaptionConfig
	Quiz      QuizConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type StorageConfig struct {
	UploadsDir string
	ImagesDir  string
}

type SQLiteConfig struct {
	Path string
}

type MilvusConfig struct {
	Endpoint       string
	CollectionName string
	VectorDim      int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLMin   int
}

type LLMConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	CaptionModel string
	Temperature  float32
	MaxTokens    int
	TimeoutSec   int
}

type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Dim     int
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type SummaryConfig struct {
	TopK             int
	GroupLimit       int
	MinSummaryLength int
	TeardownAfterRun bool
}

type CaptionConfig struct {
	MaxAttempts     int
	DelaySec        int
	RejectionPhrase string
}

type QuizConfig struct {
	MaxAttempts int
	DelaySec    int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/luminai")

	viper.SetEnvPrefix("LUMINAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 26214400)

	viper.SetDefault("storage.uploadsDir", "./data/uploads")
	viper.SetDefault("storage.imagesDir", "./data/uploads_img")

	viper.SetDefault("sqlite.path", "./data/luminai.db")

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "document_fragments")
	viper.SetDefault("milvus.vectorDim", 384)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlMin", 60)

	viper.SetDefault("llm.baseURL", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.model", "mistralai/mistral-7b-instruct")
	viper.SetDefault("llm.captionModel", "meta-llama/llama-3.2-11b-vision-instruct")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("embedding.baseURL", "https://router.huggingface.co/v1")
	viper.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dim", 384)

	viper.SetDefault("ingest.chunkSize", 1000)
	viper.SetDefault("ingest.chunkOverlap", 200)

	viper.SetDefault("summary.topK", 20)
	viper.SetDefault("summary.groupLimit", 1800)
	viper.SetDefault("summary.minSummaryLength", 50)
	viper.SetDefault("summary.teardownAfterRun", true)

	viper.SetDefault("caption.maxAttempts", 15)
	viper.SetDefault("caption.delaySec", 1)
	viper.SetDefault("caption.rejectionPhrase", "no image")

	viper.SetDefault("quiz.maxAttempts", 3)
	viper.SetDefault("quiz.delaySec", 1)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
