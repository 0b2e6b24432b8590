package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	BasePath string // prefix mounted in front of every API route

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret       string        // secret used to sign access tokens (HS256)
	AccessTokenTTL  time.Duration // access token lifetime
	RefreshTokenTTL time.Duration // refresh token lifetime
	RotateRefresh   bool          // issue a new refresh token on every refresh
	BcryptCost      int           // bcrypt cost for password hashing

	CookieSecure   bool     // mark the refresh cookie Secure
	CORSOrigins    []string // allowed browser origins
	DefaultAvatars []string // urls served by /avatars/default

	LogLevel  string // zerolog level name
	LogPretty bool   // console writer instead of JSON

	RabbitMQURL          string // empty disables event publishing
	AuditLogPath         string // file written by the audit consumer
	AuditConsumerEnabled bool   // run the consumer inside the server process
}

// Load reads a .env file when present, then the process environment, and
// returns a Config.  Every missing or malformed required variable is
// reported in the returned error, not just the first.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is normal outside development

	r := &reader{}
	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     r.must("APP_PORT"),
		BasePath: normalizeBasePath(envStr("API_BASE_PATH", "/api")),

		DBUser: r.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: r.must("DB_HOST"),
		DBPort: r.must("DB_PORT"),
		DBName: r.must("DB_NAME"),

		JWTSecret:       r.must("JWT_SECRET"),
		AccessTokenTTL:  time.Duration(r.mustPositiveInt("ACCESS_TOKEN_TTL_SECONDS")) * time.Second,
		RefreshTokenTTL: time.Duration(r.mustPositiveInt("REFRESH_TOKEN_TTL_SECONDS")) * time.Second,
		RotateRefresh:   envBool("REFRESH_ROTATE", true),
		BcryptCost:      envInt("BCRYPT_COST", 10),

		CookieSecure:   envBool("COOKIE_SECURE", false),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		DefaultAvatars: splitList(os.Getenv("DEFAULT_AVATARS")),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogPretty: envBool("LOG_PRETTY", false),

		RabbitMQURL:          rabbitURL(),
		AuditLogPath:         envStr("AUDIT_LOG_PATH", "logs/auth_audit.log"),
		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
	}
	return cfg, errors.Join(r.errs...)
}

// reader collects lookup failures so Load can report all of them at once.
type reader struct{ errs []error }

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// mustPositiveInt is like must() but converts the retrieved string into an
// integer greater than zero.
func (r *reader) mustPositiveInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		r.errs = append(r.errs, fmt.Errorf("invalid positive int for %s: %q", key, s))
		return 0
	}
	return n
}

// rabbitURL accepts RABBITMQ_URL or the older AMQP_URL name.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
