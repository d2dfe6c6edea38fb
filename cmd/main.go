package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/setarena/setarena-backend/config"
	"github.com/setarena/setarena-backend/handlers"
	"github.com/setarena/setarena-backend/logger"
	"github.com/setarena/setarena-backend/repository"
	"github.com/setarena/setarena-backend/server"
)

func main() {
	// A missing .env just means plain environment variables.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	log := logger.New(cfg.LogFile, cfg.LogLevel)
	defer log.Sync()

	repo, err := repository.ConnectToPostgreSQL(cfg, log)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer repo.Close()

	srv := server.New(cfg.GameAddr, repo, log)
	if err := srv.Start(); err != nil {
		log.Fatalf("starting game server: %v", err)
	}
	defer srv.Stop()

	h := handlers.New(repo, srv.Registry(), cfg.JWTSecret, log)
	router := handlers.NewRouter(h, srv.WSHandler)

	go func() {
		log.Infof("HTTP server running on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
}
