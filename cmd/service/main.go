package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/coches/internal/app"
	"github.com/dropDatabas3/coches/internal/config"
	httpserver "github.com/dropDatabas3/coches/internal/http"
	"github.com/dropDatabas3/coches/internal/observability/logger"
	_ "github.com/dropDatabas3/coches/internal/store/adapters/all"
	"github.com/dropDatabas3/coches/internal/util"
)

const serviceName = "coches"

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func printConfigSummary(c *config.Config) {
	fmt.Printf(`app.env=%s app.version=%s
server.addr=%s server.cors_allowed_origins=%v server.trusted_proxies=%v server.shutdown_timeout=%s
storage.driver=%s storage.dsn=%s
cache.kind=%s cache.ttl=%s cache.redis.addr=%s cache.redis.db=%d
ids.strategy=%s
rate.enabled=%t rate.window=%s rate.max_requests=%d
log.level=%s flags.migrate=%t
`,
		c.App.Env, c.App.Version,
		c.Server.Addr, c.Server.CORSAllowedOrigins, c.Server.TrustedProxies, c.Server.ShutdownTimeout,
		c.Storage.Driver, util.MaskDSN(c.Storage.DSN),
		c.Cache.Kind, c.Cache.TTL, c.Cache.Redis.Addr, c.Cache.Redis.DB,
		c.IDs.Strategy,
		c.Rate.Enabled, c.Rate.Window, c.Rate.MaxRequests,
		c.Log.Level, c.Flags.Migrate,
	)
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml; vacío = sólo env)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *flagPrint {
		printConfigSummary(cfg)
		return
	}

	logEnv := "dev"
	if cfg.App.Env == "prod" || cfg.App.Env == "staging" {
		logEnv = "prod"
	}
	logger.Init(logger.Config{
		Env:         logEnv,
		Level:       cfg.Log.Level,
		ServiceName: serviceName,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg := logger.L()
	lg.Info("starting application",
		logger.String("env", cfg.App.Env),
		logger.Driver(cfg.Storage.Driver),
		logger.Strategy(cfg.IDs.Strategy))

	a, err := app.New(ctx, cfg)
	if err != nil {
		lg.Fatal("app init failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("app close", logger.Err(err))
		}
	}()

	srv := httpserver.NewServer(cfg.Server.Addr, a.Handler).WithShutdownTimeout(cfg.ShutdownTimeout())
	if err := srv.Run(ctx); err != nil {
		lg.Error("http server", logger.Err(err))
		return
	}
	lg.Info("service stopped")
}
