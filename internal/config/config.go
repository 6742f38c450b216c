package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Push providers
const (
	PushProviderExpo = "expo"
	PushProviderFCM  = "fcm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort     string
	AllowedOrigins []string
	RateLimitRPS   float64 // per client IP
	RateLimitBurst int

	JWTSecret string

	RedisURL string

	PushProvider     string
	ExpoAccessToken  string
	ExpoPushURL      string
	ExpoRateLimit    float64 // requests per second, 0 disables limiting
	FCMProjectID     string
	FCMClientEmail   string
	FCMPrivateKey    string
	PushTimeout      time.Duration
	PushConcurrency  int
	BreakerFailures  int
	BreakerCooldown  time.Duration
	QuietHoursTZ     *time.Location
	SettingsCacheTTL time.Duration

	WorkerCount    int
	WorkerInstance string // consumer name prefix, empty means hostname
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	pushProvider := strings.ToLower(os.Getenv("PUSH_PROVIDER"))
	if pushProvider == "" {
		pushProvider = PushProviderExpo
	}

	tzName := os.Getenv("QUIET_HOURS_TZ")
	if tzName == "" {
		tzName = "UTC"
	}
	quietTZ, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("Invalid QUIET_HOURS_TZ %q, falling back to UTC: %v", tzName, err)
		quietTZ = time.UTC
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		ServerPort:     serverPort,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: redisURL,

		PushProvider:     pushProvider,
		ExpoAccessToken:  os.Getenv("EXPO_ACCESS_TOKEN"),
		ExpoPushURL:      getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoRateLimit:    getEnvFloat("EXPO_RATE_LIMIT", 500),
		FCMProjectID:     os.Getenv("FCM_PROJECT_ID"),
		FCMClientEmail:   os.Getenv("FCM_CLIENT_EMAIL"),
		FCMPrivateKey:    os.Getenv("FCM_PRIVATE_KEY"),
		PushTimeout:      getEnvDuration("PUSH_TIMEOUT", 10*time.Second),
		PushConcurrency:  getEnvInt("PUSH_MAX_CONCURRENCY", 32),
		BreakerFailures:  getEnvInt("PUSH_BREAKER_FAILURES", 20),
		BreakerCooldown:  getEnvDuration("PUSH_BREAKER_COOLDOWN", 30*time.Second),
		QuietHoursTZ:     quietTZ,
		SettingsCacheTTL: getEnvDuration("SETTINGS_CACHE_TTL", 10*time.Minute),

		WorkerCount:    getEnvInt("WORKER_COUNT", 2),
		WorkerInstance: getEnv("WORKER_INSTANCE", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
