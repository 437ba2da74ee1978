package main

import (
	"os"

	"realcapital/server/config"
	"realcapital/server/internal/ai"
	"realcapital/server/internal/api"
	"realcapital/server/internal/nadlan"
	"realcapital/server/internal/orchestrator"
	"realcapital/server/internal/store"
	"realcapital/server/internal/yad2"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.Infof("Using transaction cache at: %s", cfg.Server.DBPath)
	st, err := store.NewStore(cfg.Server.DBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize transaction cache")
	}

	registry := nadlan.NewClient(cfg, logger)
	marketplace := yad2.NewClient(cfg, logger)
	summarizer := ai.NewSummarizer(cfg, logger)
	orch := orchestrator.New(registry, marketplace, summarizer, logger)

	handler := api.NewHandler(orch, registry, st, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	addr := ":" + cfg.Server.Port
	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(addr); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
