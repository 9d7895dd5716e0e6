package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string // "development" | "production"

	MongoURI string
	MongoDB  string

	JWTSecret            string
	JWTExpireDays        int
	CookieExpireDays     int
	RequireVerifiedEmail bool

	RedisAddr       string
	RateLimitPerMin int

	RabbitURL      string
	EventsExchange string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FrontendURL  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateSecret   string

	GenProvider   string // "openai" | "ollama"
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	OllamaURL     string
	OllamaModel   string
	GenTimeoutSec int

	ExportDir string
}

func Load() Config {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	return Config{
		Port: getenv("APP_PORT", "5000"),
		Env:  getenv("APP_ENV", "development"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "coursecraft"),

		JWTSecret:            getenv("JWT_SECRET", "default_secret_key"),
		JWTExpireDays:        atoi(getenv("JWT_EXPIRE_DAYS", "30")),
		CookieExpireDays:     atoi(getenv("JWT_COOKIE_EXPIRE_DAYS", "30")),
		RequireVerifiedEmail: getenv("REQUIRE_VERIFIED_EMAIL", "false") == "true",

		RedisAddr:       getenv("REDIS_ADDR", ""),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "60")),

		RabbitURL:      getenv("RABBIT_URL", ""),
		EventsExchange: getenv("RABBIT_EXCHANGE", "coursecraft.events"),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUser:     getenv("SMTP_USER", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		FromEmail:    getenv("FROM_EMAIL", "noreply@coursecraft.dev"),
		FrontendURL:  getenv("FRONTEND_URL", "http://localhost:5173"),

		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", ""),
		OAuthStateSecret:   getenv("OAUTH_STATE_SECRET", "state_secret"),

		GenProvider:   getenv("GEN_PROVIDER", "ollama"),
		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com"),
		OllamaURL:     getenv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   getenv("OLLAMA_MODEL", "mistral"),
		GenTimeoutSec: atoi(getenv("GEN_TIMEOUT_SECONDS", "120")),

		ExportDir: getenv("EXPORT_DIR", "exports"),
	}
}

func (c Config) Production() bool { return c.Env == "production" }

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
