// graphfetchd is the HTTP server wrapping the entity graph fetcher's public
// surface, grounded on the cmd/server/main.go
// bootstrapping sequence.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"graphfetch/internal/config"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/fetch"
	"graphfetch/internal/httpapi"
	"graphfetch/internal/hydrate"
	"graphfetch/internal/metadata"
	"graphfetch/internal/migrate"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s:%d/%s, devEnv: %t)",
		cfg.Server.Port, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, cfg.IsDevEnv)

	pool, err := dbconn.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Database connected")

	if err := migrate.Bootstrap(ctx, pool); err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	log.Println("System tables and helper functions ready")

	reg := metadata.NewRegistry()
	idReg := metadata.NewIDPropertyRegistry()
	if err := metadata.LoadAll(ctx, pool.Pool, reg, idReg); err != nil {
		log.Printf("WARN: failed to load entity metadata: %v", err)
	}

	// Schema is static for the rest of the process (the stored-function
	// cache assumes so); freeze the loaded registry into a StaticSource
	// rather than handing the fetcher the live, reloadable Registry.
	src := metadata.NewStaticSource(reg.AllEntities())
	fetcher := fetch.NewFetcher(src, idReg, hydrate.DefaultConverter{}, cfg.IsDevEnv)

	app := fiber.New(fiber.Config{
		ErrorHandler: httpapi.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	httpapi.RegisterRoutes(app, httpapi.NewHandler(pool, fetcher))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting graphfetchd on %s", addr)
	log.Fatal(app.Listen(addr))
}
