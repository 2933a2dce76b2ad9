package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFormat    string // console | json
	MaxUploadMB  int
	LogFile      string

	DBDriver    string // sqlite | postgres
	DBPath      string
	DatabaseURL string

	RedisAddr  string
	RedisPass  string
	SessionTTL time.Duration

	UnitPrice      float64 // price per volume unit
	VolumeDivisor  float64 // weight (kg) per volume unit
	YieldEvery     int     // rows per parse step
	DictionaryFile string  // empty = embedded defaults
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "32"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "24h"))
	if err != nil {
		ttl = 24 * time.Hour
	}
	yield, _ := strconv.Atoi(getenv("YIELD_EVERY", "50"))
	if yield <= 0 {
		yield = 50
	}
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "console")),
		MaxUploadMB:  mb,
		LogFile:      getenv("LOG_FILE", "logs/cargo-recon.log"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:      getenv("DB_PATH", "data/cargo-recon.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		RedisAddr:  getenv("REDIS_ADDR", ""),
		RedisPass:  getenv("REDIS_PASS", ""),
		SessionTTL: ttl,

		UnitPrice:      getfloat("UNIT_PRICE", 100),
		VolumeDivisor:  getfloat("VOLUME_DIVISOR", 100),
		YieldEvery:     yield,
		DictionaryFile: getenv("DICTIONARY_FILE", ""),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(getenv(k, ""), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
