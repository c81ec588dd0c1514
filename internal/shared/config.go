package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DriverFile  = "file"
	DriverMySQL = "mysql"
	DriverRedis = "redis"

	PolicyBestEffort = "best-effort"
	PolicyFailFast   = "fail-fast"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	StoreDriver   string
	ReviewsFile   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	RedisKey      string
	ErrorPolicy   string
	ImportWorkers int
	APIRPS        int
	HTTPTimeout   time.Duration
}

func Load() Config {
	return load(os.Getenv)
}

func load(getenv func(string) string) Config {
	env := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}
	atoi := func(k string, def int) int {
		if v := getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric config value")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		StoreDriver:   strings.ToLower(env("STORE_DRIVER", DriverFile)),
		ReviewsFile:   env("REVIEWS_FILE", "reviews.txt"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		RedisKey:      env("REDIS_KEY", "reviews:lines"),
		ErrorPolicy:   strings.ToLower(env("ERROR_POLICY", PolicyBestEffort)),
		ImportWorkers: atoi("IMPORT_WORKERS", 4),
		APIRPS:        atoi("API_RPS", 10),
		HTTPTimeout:   time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	switch c.StoreDriver {
	case DriverFile, DriverMySQL, DriverRedis:
	default:
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, using file")
		c.StoreDriver = DriverFile
	}
	switch c.ErrorPolicy {
	case PolicyBestEffort, PolicyFailFast:
	default:
		log.Warn().Str("policy", c.ErrorPolicy).Msg("unknown ERROR_POLICY, using best-effort")
		c.ErrorPolicy = PolicyBestEffort
	}
	if c.ImportWorkers <= 0 {
		c.ImportWorkers = 1
	}
	return c
}
