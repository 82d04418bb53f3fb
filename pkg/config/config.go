// Package config loads application configuration from files, environment
// variables, and flags via viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Retrieval      RetrievalConfig      `mapstructure:"retrieval"`
	Ingest         IngestConfig         `mapstructure:"ingest"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
	Alert          AlertConfig          `mapstructure:"alert"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph store configuration.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig holds language model configuration for answer generation and
// entity extraction.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RetrievalConfig holds fusion weights and signal tuning. The three weights
// are expected to sum to 1; this is a precondition on the operator, not
// enforced at load time.
type RetrievalConfig struct {
	VectorWeight   float64       `mapstructure:"vector_weight"`
	LexicalWeight  float64       `mapstructure:"lexical_weight"`
	GraphWeight    float64       `mapstructure:"graph_weight"`
	VectorMinScore float64       `mapstructure:"vector_min_score"`
	MaxHops        int           `mapstructure:"max_hops"`
	TopK           int           `mapstructure:"top_k"`
	ResultCount    int           `mapstructure:"result_count"`
	SignalTimeout  time.Duration `mapstructure:"signal_timeout"`
}

// IngestConfig holds document splitting and pipeline settings.
type IngestConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	Workers      int `mapstructure:"workers"`
}

// TelemetryConfig holds error-telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting.
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking around the
// embedding and LLM providers.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.driver", "memory")
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 2048)

	viper.SetDefault("retrieval.vector_weight", 0.4)
	viper.SetDefault("retrieval.lexical_weight", 0.3)
	viper.SetDefault("retrieval.graph_weight", 0.3)
	viper.SetDefault("retrieval.vector_min_score", 0.65)
	viper.SetDefault("retrieval.max_hops", 3)
	viper.SetDefault("retrieval.top_k", 10)
	viper.SetDefault("retrieval.result_count", 5)
	viper.SetDefault("retrieval.signal_timeout", 10*time.Second)

	viper.SetDefault("ingest.chunk_size", 1200)
	viper.SetDefault("ingest.chunk_overlap", 200)
	viper.SetDefault("ingest.workers", 4)

	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.docgraph/telemetry", home))
	}
}

// overrideWithEnv overrides config with well-known environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.Driver = "neo4j"
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
