package main

import (
	"log"

	"classpoll/config"
	"classpoll/internal/server"
	"classpoll/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Logger.Sync()

	hub := server.NewHub(cfg)
	go hub.Run()

	srv := server.New(cfg, l, hub)
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
