package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/coches/internal/config"
	"github.com/dropDatabas3/coches/internal/store"
	_ "github.com/dropDatabas3/coches/internal/store/adapters/all"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (vacío = sólo env)")
		envFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		driver     = flag.String("driver", "", "Override de storage.driver (postgres | sqlite)")
		dsn        = flag.String("dsn", "", "Override de storage.dsn")
	)
	flag.Parse()

	if *envFile != "" {
		if _, err := os.Stat(*envFile); err == nil {
			_ = godotenv.Load(*envFile)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if *driver != "" {
		cfg.Storage.Driver = *driver
	}
	if *dsn != "" {
		cfg.Storage.DSN = *dsn
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		log.Fatalf("store open: %v", err)
	}
	defer st.Close()

	res, err := store.Migrate(ctx, st.Backend)
	if errors.Is(err, store.ErrNotMigratable) {
		log.Printf("driver %s has no migrations. Nothing to do.", st.Driver)
		return
	}
	if err != nil {
		if res != nil && res.Failed != nil {
			log.Printf("failed at version %d", *res.Failed)
		}
		log.Fatalf("migrate: %v", err)
	}

	if len(res.Applied) == 0 {
		log.Printf("Up to date (%d migration(s) already applied).", len(res.Skipped))
		return
	}
	applied := make([]string, 0, len(res.Applied))
	for _, v := range res.Applied {
		applied = append(applied, fmt.Sprintf("%04d", v))
	}
	log.Printf("Applied %d migration(s) [%s] in %s.", len(res.Applied), strings.Join(applied, ", "), res.Duration)
}

