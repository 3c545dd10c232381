package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikeshop/internal/config"
	"bikeshop/internal/http/handlers"
	"bikeshop/internal/mail"
	"bikeshop/internal/repos"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	app := handlers.NewApp(cfg, db, mail.NewSender(cfg.Mail))

	errc := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on :%s", cfg.Port)
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.Printf("[http] server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("[http] shutting down")
		if err := app.ShutdownWithTimeout(shutdownGrace); err != nil {
			log.Printf("[http] shutdown: %v", err)
		}
	}
}
