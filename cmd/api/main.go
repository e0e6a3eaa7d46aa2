package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"brandreach/internal/app/bootstrap"
)

// @title brandreach campaign lifecycle API
// @version 1.0
// @description Campaign lifecycle: invitations, applications, content review and completion.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("brandreach api starting")
	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("brandreach api stopped with error: %v", err)
	}
}
