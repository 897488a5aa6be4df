package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/cache"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/config"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/consensus"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/db"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/jobs"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/middleware"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/oracle"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/providers"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/signing"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/ws"
)

func buildPanel(cfg *config.Config) []oracle.Entry {
	if cfg.MockMode {
		return []oracle.Entry{
			{Key: "mock-1", Client: &providers.Mock{Model: "mock-a", Delay: cfg.MockDelay}},
			{Key: "mock-2", Client: &providers.Mock{Model: "mock-b", Delay: cfg.MockDelay}},
			{Key: "mock-3", Client: &providers.Mock{Model: "mock-c", Delay: cfg.MockDelay}},
		}
	}

	limiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cfg.ProviderRPS), cfg.ProviderBurst)
	}

	var panel []oracle.Entry
	if cfg.OpenAIKey != "" {
		panel = append(panel, oracle.Entry{Key: "openai", Client: &providers.OpenAI{Key: cfg.OpenAIKey, Model: cfg.OpenAIModel, Limiter: limiter()}})
	}
	if cfg.AnthropicKey != "" {
		panel = append(panel, oracle.Entry{Key: "anthropic", Client: &providers.Anthropic{Key: cfg.AnthropicKey, Model: cfg.AnthropicModel, Limiter: limiter()}})
	}
	if cfg.GeminiKey != "" {
		panel = append(panel, oracle.Entry{Key: "gemini", Client: &providers.Gemini{Key: cfg.GeminiKey, Model: cfg.GeminiModel, Limiter: limiter()}})
	}
	if cfg.GrokKey != "" {
		panel = append(panel, oracle.Entry{Key: "grok", Client: &providers.Grok{Key: cfg.GrokKey, Model: cfg.GrokModel, Limiter: limiter()}})
	}
	return panel
}

func main() {
	doMigrate := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	cfg := config.Load()
	sqlxDB := db.MustConnect(cfg.DBDSN)
	rdb := cache.MustConnect(cfg.RedisAddr, cfg.RedisDB)

	tlog := telemetry.Init(telemetry.FromEnv(config.GetEnv))
	tlog.Info().Str("port", cfg.AppPort).Msg("booting oracle service")

	if *doMigrate {
		db.MustMigrate(sqlxDB)
		log.Println("migrations done")
		return
	}

	panel := buildPanel(cfg)
	scorer := consensus.NewScorer(cfg.ProviderWeights)
	orc, err := oracle.New(panel, scorer, cfg.RoundTimeout)
	if err != nil {
		names := make([]string, 0, len(panel))
		for _, e := range panel {
			names = append(names, e.Key)
		}
		tlog.Fatal().Err(err).Str("configured", strings.Join(names, ",")).Msg("provider panel too small")
	}

	store := jobs.NewStore(sqlxDB)
	queue := jobs.NewQueue(rdb)
	pool := jobs.NewPool(store, queue, orc, signing.Passthrough{}, ws.Notifier{}, jobs.PoolConfig{
		Workers:       cfg.Workers,
		RoundTimeout:  cfg.RoundTimeout,
		RetryDelay:    cfg.RetryDelay,
		SweepInterval: cfg.SweepInterval,
		KeepJobs:      cfg.KeepJobs,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go pool.Run(ctx)

	app := fiber.New()

	app.Use(middleware.RateLimiter())
	app.Use(middleware.RequestID())
	app.Use(middleware.Recover())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.RequestLog())
	app.Use(middleware.SecureHeaders())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	jh := jobs.NewHandler(store, queue)
	api := app.Group("/api/v1")
	api.Post("/queries", jh.CreateQuery)
	api.Post("/disputes", jh.CreateDispute)
	api.Post("/posts", jh.CreatePost)
	api.Get("/jobs/:id", jh.GetJob)

	app.Get("/ws", middleware.WSUpgradeMiddleware(), websocket.New(ws.HandleWS))

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.AppPort); err != nil {
		tlog.Fatal().Err(err).Msg("server stopped")
	}
}
