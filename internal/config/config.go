package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/configs/env"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisIngestStream       string
	RedisIngestGroup        string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentAnalysis int
	WorkerPoolSize        int

	// Analysis
	AnalysisTimeout      time.Duration
	MaxFiles             int
	DefaultThreshold     float64
	EvidenceCutoff       float64
	EvidenceOnDuplicates bool
	FuzzyCutoff          float64
	MinLineLength        int
	MaxLineMatches       int
	MaxFeatures          int
	NormalizeIdentifiers bool
	Language             string

	// Storage
	StorageBackend string
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// HTTP
	CORSOrigins []string

	// Logging
	LogLevel  string
	LogPretty bool

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisIngestStream = env.GetEnv("REDIS_INGEST_STREAM", "notebooks:stream")
	cfg.RedisIngestGroup = env.GetEnv("REDIS_INGEST_GROUP", "notebooks:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "notebooks:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_DURATION", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "plagiarism-control")
	ttlHours := env.GetEnvInt("JWT_TTL_HOURS", 24)
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentAnalysis = env.GetEnvInt("MAX_CONCURRENT_ANALYSIS", 2)
	cfg.WorkerPoolSize = env.GetEnvInt("WORKER_POOL_SIZE", 0) // 0 sizes the pool from the CPU count

	// Analysis
	timeoutSeconds := env.GetEnvInt("ANALYSIS_TIMEOUT_SECONDS", 300)
	cfg.AnalysisTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.MaxFiles = env.GetEnvInt("MAX_FILES", 100)
	cfg.DefaultThreshold = env.GetEnvFloat("DEFAULT_THRESHOLD", 0.5)
	cfg.EvidenceCutoff = env.GetEnvFloat("EVIDENCE_CUTOFF", 0.7)
	cfg.EvidenceOnDuplicates = env.GetEnvBool("EVIDENCE_ON_DUPLICATES", true)
	cfg.FuzzyCutoff = env.GetEnvFloat("FUZZY_CUTOFF", 0.85)
	cfg.MinLineLength = env.GetEnvInt("MIN_LINE_LENGTH", 10)
	cfg.MaxLineMatches = env.GetEnvInt("MAX_LINE_MATCHES", 50)
	cfg.MaxFeatures = env.GetEnvInt("MAX_FEATURES", 5000)
	cfg.NormalizeIdentifiers = env.GetEnvBool("NORMALIZE_IDENTIFIERS", true)
	cfg.Language = env.GetEnv("LANGUAGE", "python")

	// Storage
	cfg.StorageBackend = env.GetEnv("STORAGE_BACKEND", "local")
	cfg.UploadDir = env.GetEnv("UPLOAD_DIR", "./uploads")
	cfg.MinioEndpoint = env.GetEnv("MINIO_ENDPOINT", "localhost:9000")
	cfg.MinioAccessKey = env.GetEnv("MINIO_ACCESS_KEY", "")
	cfg.MinioSecretKey = env.GetEnv("MINIO_SECRET_KEY", "")
	cfg.MinioBucket = env.GetEnv("MINIO_BUCKET", "notebooks")
	cfg.MinioRegion = env.GetEnv("MINIO_REGION", "us-east-1")
	cfg.MinioUseSSL = env.GetEnvBool("MINIO_USE_SSL", false)

	// HTTP
	cfg.CORSOrigins = env.GetEnvList("CORS_ORIGINS", []string{"*"})

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogPretty = env.GetEnvBool("LOG_PRETTY", false)

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8000")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxConcurrentAnalysis <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ANALYSIS must be greater than 0")
	}
	if c.MaxFiles <= 1 {
		return fmt.Errorf("MAX_FILES must be greater than 1")
	}
	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return fmt.Errorf("DEFAULT_THRESHOLD must be within [0, 1]")
	}
	if c.EvidenceCutoff < 0 || c.EvidenceCutoff >= 1 {
		return fmt.Errorf("EVIDENCE_CUTOFF must be within [0, 1)")
	}
	if c.FuzzyCutoff <= 0 || c.FuzzyCutoff > 1 {
		return fmt.Errorf("FUZZY_CUTOFF must be within (0, 1]")
	}
	if c.MaxLineMatches <= 0 {
		return fmt.Errorf("MAX_LINE_MATCHES must be greater than 0")
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("MAX_FEATURES must be greater than 0")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_DURATION must be greater than 0")
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must be * or start with http:// or https://", origin)
		}
	}
	switch c.StorageBackend {
	case "local":
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for minio storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend)
	}
	return nil
}
