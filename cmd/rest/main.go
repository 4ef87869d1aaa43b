package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intelliprep-notes-be/internal/bootstrap"
	"intelliprep-notes-be/internal/config"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/repository/factory"
	"intelliprep-notes-be/internal/server"
	"intelliprep-notes-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, sysLogger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Remote note backend (Supabase or Firebase)
	backend, err := factory.NewNoteBackend(ctx, cfg, sysLogger)
	if err != nil {
		log.Panicf("Unable to open notes backend: %v", err)
	}
	defer backend.Close()
	sysLogger.Info("Main", "Notes backend ready", map[string]interface{}{"backend": backend.Name})

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, backend.Repository, sysLogger)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 5. Start Background Services
	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}

	// 6. Run Server until a signal arrives
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("Main", "Server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
