package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursecraft/coursecraft-api/internal/config"
	"github.com/coursecraft/coursecraft-api/internal/export"
	"github.com/coursecraft/coursecraft-api/internal/genai"
	api "github.com/coursecraft/coursecraft-api/internal/http"
	"github.com/coursecraft/coursecraft-api/internal/log"
	"github.com/coursecraft/coursecraft-api/internal/mail"
	"github.com/coursecraft/coursecraft-api/internal/metrics"
	"github.com/coursecraft/coursecraft-api/internal/oauth"
	"github.com/coursecraft/coursecraft-api/internal/queue"
	"github.com/coursecraft/coursecraft-api/internal/repo"
)

func main() {
	cfg := config.Load()

	if _, err := log.Init(cfg.Production()); err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer log.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Errorf("mongo connect: %v", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Errorf("ensure indexes: %v", err)
		os.Exit(1)
	}

	var rl api.Limiter
	if cfg.RedisAddr != "" {
		rds := repo.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			log.Errorf("redis ping: %v", err)
			os.Exit(1)
		}
		rl = api.NewRedisLimiter(rds, cfg.RateLimitPerMin, time.Minute)
	} else {
		rl = api.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	}

	events := queue.NewNoop()
	if cfg.RabbitURL != "" {
		events, err = queue.NewRabbit(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Errorf("rabbit connect: %v", err)
			os.Exit(1)
		}
	}
	defer events.Close()

	var mailer mail.Mailer = mail.LogSender{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail)
	}

	var gen genai.Generator
	switch cfg.GenProvider {
	case "openai":
		gen = genai.NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel)
	default:
		gen = genai.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	}

	exporter, err := export.New(cfg.ExportDir)
	if err != nil {
		log.Errorf("exporter init: %v", err)
		os.Exit(1)
	}

	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.OAuthStateSecret)

	h := api.NewHandler(store, mailer, google, gen, exporter, events,
		cfg.EventsExchange, cfg.JWTSecret, cfg.JWTExpireDays, cfg.CookieExpireDays,
		cfg.RequireVerifiedEmail, cfg.FrontendURL,
		time.Duration(cfg.GenTimeoutSec)*time.Second, !cfg.Production())
	r := api.NewRouter(h, rl, cfg.FrontendURL)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	log.Infof("coursecraft-api listening on :%s (env=%s, provider=%s)", cfg.Port, cfg.Env, cfg.GenProvider)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("signal: %s, shutting down", s)
	case err := <-srvErr:
		log.Errorf("server error: %v", err)
	}
}
