package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector backends.
const (
	VectorBackendPGVector = "pgvector"
	VectorBackendQdrant   = "qdrant"
)

// Config holds all application configuration. Values come from defaults,
// then an optional YAML file named by BLAIZE_CONFIG, then the environment.
type Config struct {
	// Server
	Port        string `yaml:"port"`
	AppName     string `yaml:"app_name"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	FrontendURL string `yaml:"frontend_url"`
	MaxUploadMB int    `yaml:"max_upload_mb"`

	// Database. DatabaseURL wins over the DB_* parts.
	DatabaseURL string `yaml:"database_url"`
	DBHost      string `yaml:"db_host"`
	DBPort      int    `yaml:"db_port"`
	DBName      string `yaml:"db_name"`
	DBUser      string `yaml:"db_user"`
	DBPassword  string `yaml:"db_password"`

	// AWS / Bedrock
	AWSRegion          string `yaml:"aws_region"`
	EmbedModelID       string `yaml:"embed_model_id"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	GenerationModelID  string `yaml:"generation_model_id"`
	InsightsModelID    string `yaml:"insights_model_id"`
	ClaudeModelARN     string `yaml:"claude_model_arn"`
	HaikuModelARN      string `yaml:"haiku_model_arn"`

	// Knowledge base
	KnowledgeBaseID  string `yaml:"knowledge_base_id"`
	KBBucket         string `yaml:"kb_bucket"`
	KBSyncFunction   string `yaml:"kb_sync_function"`
	KBInboxDir       string `yaml:"kb_inbox_dir"`
	SessionTTLMinute int    `yaml:"session_ttl_minutes"`

	// Vector index
	VectorBackend    string `yaml:"vector_backend"`
	QdrantHost       string `yaml:"qdrant_host"`
	QdrantPort       int    `yaml:"qdrant_port"`
	QdrantAPIKey     string `yaml:"qdrant_api_key"`
	QdrantCollection string `yaml:"qdrant_collection"`

	// MCP
	MCPEnabled bool   `yaml:"mcp_enabled"`
	MCPPort    string `yaml:"mcp_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:        "3001",
		AppName:     "Blaize Bazaar",
		Env:         "development",
		LogLevel:    "info",
		FrontendURL: "http://localhost:3000",
		MaxUploadMB: 25,

		DBPort: 5432,

		AWSRegion:          "us-west-2",
		EmbedModelID:       "amazon.titan-embed-text-v2:0",
		EmbeddingDimension: 1024,
		GenerationModelID:  "anthropic.claude-3-5-sonnet-20240620-v1:0",
		InsightsModelID:    "anthropic.claude-3-haiku-20240307-v1:0",

		KBSyncFunction:   "bedrock-knowledge-base-poc-auto-sync",
		SessionTTLMinute: 60,

		VectorBackend:    VectorBackendPGVector,
		QdrantHost:       "localhost",
		QdrantPort:       6334,
		QdrantCollection: "product_catalog",

		MCPEnabled: false,
		MCPPort:    "3002",
	}
}

// Load builds the configuration from defaults, the BLAIZE_CONFIG file and
// environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("BLAIZE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOrDefault("PORT", c.Port)
	c.AppName = envOrDefault("APP_NAME", c.AppName)
	c.Env = envOrDefault("APP_ENV", c.Env)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.FrontendURL = envOrDefault("FRONTEND_URL", c.FrontendURL)
	c.MaxUploadMB = envOrDefaultInt("MAX_UPLOAD_MB", c.MaxUploadMB)

	c.DatabaseURL = envOrDefault("DATABASE_URL", c.DatabaseURL)
	c.DBHost = envOrDefault("DB_HOST", c.DBHost)
	c.DBPort = envOrDefaultInt("DB_PORT", c.DBPort)
	c.DBName = envOrDefault("DB_NAME", c.DBName)
	c.DBUser = envOrDefault("DB_USER", c.DBUser)
	c.DBPassword = envOrDefault("DB_PASSWORD", c.DBPassword)

	c.AWSRegion = envOrDefault("AWS_REGION", envOrDefault("AWS_DEFAULT_REGION", c.AWSRegion))
	c.EmbedModelID = envOrDefault("BEDROCK_EMBED_MODEL_ID", c.EmbedModelID)
	c.EmbeddingDimension = envOrDefaultInt("EMBEDDING_DIMENSION", c.EmbeddingDimension)
	c.GenerationModelID = envOrDefault("BEDROCK_GENERATION_MODEL_ID", c.GenerationModelID)
	c.InsightsModelID = envOrDefault("BEDROCK_INSIGHTS_MODEL_ID", c.InsightsModelID)
	c.ClaudeModelARN = envOrDefault("BEDROCK_CLAUDE_MODEL_ARN", c.ClaudeModelARN)
	c.HaikuModelARN = envOrDefault("BEDROCK_HAIKU_MODEL_ARN", c.HaikuModelARN)

	c.KnowledgeBaseID = envOrDefault("BEDROCK_KB_ID", c.KnowledgeBaseID)
	c.KBBucket = envOrDefault("S3_KB_BUCKET", c.KBBucket)
	c.KBSyncFunction = envOrDefault("KB_SYNC_FUNCTION", c.KBSyncFunction)
	c.KBInboxDir = envOrDefault("KB_INBOX_DIR", c.KBInboxDir)
	c.SessionTTLMinute = envOrDefaultInt("SESSION_TTL_MINUTES", c.SessionTTLMinute)

	c.VectorBackend = strings.ToLower(envOrDefault("VECTOR_BACKEND", c.VectorBackend))
	c.QdrantHost = envOrDefault("QDRANT_HOST", c.QdrantHost)
	c.QdrantPort = envOrDefaultInt("QDRANT_PORT", c.QdrantPort)
	c.QdrantAPIKey = envOrDefault("QDRANT_API_KEY", c.QdrantAPIKey)
	c.QdrantCollection = envOrDefault("QDRANT_COLLECTION", c.QdrantCollection)

	c.MCPEnabled = envOrDefaultBool("MCP_ENABLED", c.MCPEnabled)
	c.MCPPort = envOrDefault("MCP_PORT", c.MCPPort)
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" && c.DBHost == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST is required"))
	}
	if c.AWSRegion == "" {
		errs = append(errs, errors.New("AWS_REGION is required"))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSION must be positive"))
	}
	if c.VectorBackend != VectorBackendPGVector && c.VectorBackend != VectorBackendQdrant {
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND must be %s or %s, got %q", VectorBackendPGVector, VectorBackendQdrant, c.VectorBackend))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresDSN returns DatabaseURL, or builds one from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

// DSN returns a connection description safe for logging (password masked).
func (c *Config) DSN() string {
	u, err := url.Parse(c.PostgresDSN())
	if err != nil {
		return "postgres://***"
	}
	return u.Redacted()
}

// ClaudeARN returns the Sonnet model ARN, defaulting to the foundation
// model in the configured region.
func (c *Config) ClaudeARN() string {
	if c.ClaudeModelARN != "" {
		return c.ClaudeModelARN
	}
	return foundationModelARN(c.AWSRegion, c.GenerationModelID)
}

// HaikuARN returns the Haiku model ARN, defaulting like ClaudeARN.
func (c *Config) HaikuARN() string {
	if c.HaikuModelARN != "" {
		return c.HaikuModelARN
	}
	return foundationModelARN(c.AWSRegion, c.InsightsModelID)
}

// SessionTTL returns the chat session idle timeout.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinute) * time.Minute
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func foundationModelARN(region, modelID string) string {
	return fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", region, modelID)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
