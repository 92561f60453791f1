package config

import (
	"errors"  // For required-variable errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	BaseURL        string        // Public base URL used to build upload links
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	JWTSecret      string        // JWT secret key
	JWTTTL         time.Duration // Credential lifetime
	RedisAddr      string        // Redis server address
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	RequestTimeout time.Duration // Per-request deadline
	RateLimit      int           // Auth requests allowed per window and client
	RateWindow     time.Duration // Rate limit window
	UploadDir      string        // Local directory for uploaded images
	MaxUploadBytes int64         // Upload size limit
	StorageBackend string        // "local" or "s3"
	S3Bucket       string        // S3 bucket for uploads
	S3Region       string        // S3 region
	S3Endpoint     string        // S3-compatible endpoint (MinIO etc.)
	S3AccessKey    string        // S3 access key
	S3SecretKey    string        // S3 secret key
	AllowedOrigins []string      // CORS origins, "*" allows any
	IsProd         bool          // Is production environment
}

// ErrMissingSecret is returned when JWT_SECRET is not set
var ErrMissingSecret = errors.New("JWT_SECRET environment variable is required")

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() *Config {
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:        getEnv("APP_PORT", "5000"),                     // Application port
		BaseURL:        os.Getenv("BASE_URL"),                          // Public base URL
		DBUser:         os.Getenv("DB_USER"),                           // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                       // Database password
		DBHost:         getEnv("DB_HOST", "localhost"),                 // Database host
		DBPort:         getEnv("DB_PORT", "3306"),                      // Database port
		DBName:         getEnv("DB_NAME", "shop"),                      // Database name
		JWTSecret:      os.Getenv("JWT_SECRET"),                        // JWT secret key
		JWTTTL:         getDuration("JWT_TTL", 30*24*time.Hour),        // 30 days by default
		RedisAddr:      os.Getenv("REDIS_ADDR"),                        // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                        // Redis password
		RedisDB:        redisDB,                                        // Redis database number
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second), // Request deadline
		RateLimit:      getInt("AUTH_RATE_LIMIT", 20),                  // Auth requests per window
		RateWindow:     getDuration("AUTH_RATE_WINDOW", time.Minute),   // Rate limit window
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),                // Upload directory
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 5*1024*1024)), // 5MB by default
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),             // Upload backend
		S3Bucket:       os.Getenv("S3_BUCKET"),                         // S3 bucket
		S3Region:       getEnv("S3_REGION", "us-east-1"),               // S3 region
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),                       // S3 endpoint
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),                     // S3 access key
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),                     // S3 secret key
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),      // CORS origins
		IsProd:         os.Getenv("IS_PROD") == "true",                 // Is production environment
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}
	return nil
}

// DSN returns the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getInt parses an integer variable, falling back on absence or parse error
func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getDuration parses a duration variable such as "720h" or "10s"
func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// getList splits a comma-separated variable, dropping empty entries
func getList(key string, fallback []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
