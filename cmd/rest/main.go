package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clash-rulesync/internal/bootstrap"
	"clash-rulesync/internal/config"
	"clash-rulesync/internal/server"
	"clash-rulesync/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Edge.ApiSecret == "" {
		log.Fatal("[FATAL] API_SECRET must be set")
	}

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start Background Services
	log.Println("Background: Starting Consumer Service...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("[WARN] Server shutdown: %v", err)
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("[ERROR] Server stopped: %v", err)
	}

	container.Close()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdownTracer(flushCtx)
}
