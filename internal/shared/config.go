package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"property_submission/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string // empty keeps records in memory
	RedisAddr   string // empty disables the cache and the draft id store
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	DraftIDTTL  time.Duration
	CORSOrigins []string

	RabbitURL      string // empty disables lifecycle events
	RabbitExchange string

	APIBase      string
	APIToken     string
	APIRPS       int
	SubmitOwner  string
	SubmitRole   domain.Role
	Workers      int
	AutosaveIdle time.Duration
}

// Load reads the environment, after applying a .env file from the working
// directory (or envFile when given) if one exists.
func Load(envFile ...string) Config {
	var err error
	if len(envFile) > 0 && envFile[0] != "" {
		err = godotenv.Load(envFile[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not applied")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", ""),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		DraftIDTTL:     time.Duration(atoi("DRAFT_ID_TTL_HOURS", 720)) * time.Hour,
		CORSOrigins:    list(env("CORS_ORIGINS", "")),
		RabbitURL:      env("RABBITMQ_URL", ""),
		RabbitExchange: env("RABBITMQ_EXCHANGE", "listings"),
		APIBase:        env("PROPERTY_API_URL", "http://localhost:8080"),
		APIToken:       env("PROPERTY_API_TOKEN", ""),
		APIRPS:         atoi("PROPERTY_API_RPS", 5),
		SubmitOwner:    env("SUBMIT_OWNER", ""),
		Workers:        atoi("SUBMIT_WORKERS", 4),
		AutosaveIdle:   time.Duration(atoi("AUTOSAVE_IDLE_MS", 3000)) * time.Millisecond,
	}
	role, err := domain.ParseRole(env("SUBMIT_ROLE", string(domain.RoleUser)))
	if err != nil {
		log.Warn().Err(err).Msg("SUBMIT_ROLE invalid, using user")
		role = domain.RoleUser
	}
	c.SubmitRole = role
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
