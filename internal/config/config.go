package config

import (
	"os"
	"strconv"
	"strings"
)

// PersistenceBackend selects where durable state lives.
type PersistenceBackend string

const (
	BackendMemory PersistenceBackend = "memory"
	BackendMongo  PersistenceBackend = "mongo"
)

type Config struct {
	Port string

	Env      string
	LogLevel string

	JWTSecret        string
	AccessTTLMinutes int
	RefreshTTLDays   int

	PersistenceBackend PersistenceBackend
	MongoURI           string
	RedisURL           string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PublicEndpoint  string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool

	MetricsEnabled bool

	BootstrapWorkspaceName string
	BootstrapEmail         string
	BootstrapPassword      string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Port:     GetEnv("PORT", "8080"),
		Env:      GetEnv("APP_ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		JWTSecret:        GetEnv("JWT_SECRET", "galynx-dev-secret-change-me"),
		AccessTTLMinutes: GetEnvInt("ACCESS_TTL_MINUTES", 15),
		RefreshTTLDays:   GetEnvInt("REFRESH_TTL_DAYS", 30),

		PersistenceBackend: parseBackend(GetEnv("PERSISTENCE_BACKEND", "memory")),
		MongoURI:           GetEnv("MONGO_URI", ""),
		RedisURL:           GetEnv("REDIS_URL", ""),

		S3Bucket:          GetEnv("S3_BUCKET", ""),
		S3Region:          GetEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        GetEnv("S3_ENDPOINT", ""),
		S3PublicEndpoint:  GetEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKeyID:     GetEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: GetEnv("S3_SECRET_ACCESS_KEY", ""),
		S3ForcePathStyle:  GetEnvBool("S3_FORCE_PATH_STYLE", false),

		MetricsEnabled: GetEnvBool("METRICS_ENABLED", true),

		BootstrapWorkspaceName: GetEnv("BOOTSTRAP_WORKSPACE_NAME", "Galynx"),
		BootstrapEmail:         GetEnv("BOOTSTRAP_EMAIL", "owner@galynx.local"),
		BootstrapPassword:      GetEnv("BOOTSTRAP_PASSWORD", "ChangeMe123!"),
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvBool accepts 1/true/yes/y/on (case-insensitive) as true.
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

// parseBackend treats mongo, mongodb and documentdb as the mongo backend;
// anything else falls back to memory.
func parseBackend(value string) PersistenceBackend {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mongo", "mongodb", "documentdb":
		return BackendMongo
	default:
		return BackendMemory
	}
}
