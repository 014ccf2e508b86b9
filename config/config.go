package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	RedisURL     string
	DatabaseURL  string
	DatabaseName string
	BaseURL      string
	Port         string
	JWTSecret    string

	// media token provider (opaque boundary, see media package)
	TokenServerURL string
	MediaAppID     string
	TokenTTL       time.Duration

	// assignment engine knobs
	AssignEnabled      bool
	AssignInterval     time.Duration
	AssignMaxPerTick   int
	AssignQueueTypes   []string
	AssignedTimeout    time.Duration
	WatchdogInterval   time.Duration
	MaxAssignRetries   int
	PickCandidates     int
	ConsultantLockTTL  time.Duration
	CleanupInterval    time.Duration
	WaitingIdleTimeout time.Duration
	ChatIdleTimeout    time.Duration
	RetentionDays      int
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:  os.Getenv("DB_URI"),
		DatabaseName: getEnv("DB_NAME", "live_support"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),

		TokenServerURL: os.Getenv("TOKEN_SERVER_URL"),
		MediaAppID:     os.Getenv("MEDIA_APP_ID"),
		TokenTTL:       getDuration("TOKEN_TTL", time.Hour),

		AssignEnabled:      getBool("ASSIGN_ENABLED", true),
		AssignInterval:     getDuration("ASSIGN_INTERVAL", 150*time.Millisecond),
		AssignMaxPerTick:   getInt("ASSIGN_MAX_PER_TICK", 20),
		AssignQueueTypes:   getList("ASSIGN_QUEUE_TYPES"),
		AssignedTimeout:    getDuration("ASSIGNED_TIMEOUT", 15*time.Second),
		WatchdogInterval:   getDuration("WATCHDOG_INTERVAL", 500*time.Millisecond),
		MaxAssignRetries:   getInt("MAX_ASSIGN_RETRIES", 3),
		PickCandidates:     getInt("PICK_CANDIDATES", 5),
		ConsultantLockTTL:  getDuration("CONSULTANT_LOCK_TTL", 10*time.Second),
		CleanupInterval:    getDuration("CLEANUP_INTERVAL", 5*time.Minute),
		WaitingIdleTimeout: getDuration("WAITING_IDLE_TIMEOUT", 10*time.Minute),
		ChatIdleTimeout:    getDuration("CHATTING_IDLE_TIMEOUT", 30*time.Minute),
		RetentionDays:      getInt("RETENTION_DAYS", 90),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnw("invalid integer env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		zap.S().Warnw("invalid boolean env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return d
}

// getList parses a comma separated env value, e.g. ASSIGN_QUEUE_TYPES=deposit,card,loan
func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
