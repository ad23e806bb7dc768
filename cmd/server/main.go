package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/korjavin/whatthefridge/pkg/catalog"
	"github.com/korjavin/whatthefridge/pkg/config"
	"github.com/korjavin/whatthefridge/pkg/dish"
	"github.com/korjavin/whatthefridge/pkg/ingredient"
	"github.com/korjavin/whatthefridge/pkg/logger"
	"github.com/korjavin/whatthefridge/pkg/openai"
	"github.com/korjavin/whatthefridge/pkg/state"
	"github.com/korjavin/whatthefridge/pkg/storage"
	"github.com/korjavin/whatthefridge/pkg/web"
)

func main() {
	// Initialize logger
	log := logger.Global
	log.Info("Starting WhatTheFridge server...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(cfg.GCInterval)

	// Initialize services
	ingredientService, err := ingredient.New(store)
	if err != nil {
		log.Error("Failed to initialize ingredient directory: %v", err)
		os.Exit(1)
	}
	defer ingredientService.Close()
	dishService := dish.New(store, ingredientService)

	if cfg.SeedCatalog {
		if _, err := catalog.Seed(ingredientService, dishService); err != nil {
			log.Error("Failed to seed catalog: %v", err)
			os.Exit(1)
		}
	}

	// Selection state lives in Redis when configured so that replicas share sessions
	var selections state.Store
	if cfg.RedisAddr != "" {
		selections, err = state.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.SessionTTL)
		if err != nil {
			log.Error("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Info("Using Redis selection store at %s", cfg.RedisAddr)
	} else {
		manager := state.New(cfg.SessionTTL)
		manager.StartSweeper(cfg.SessionTTL)
		selections = manager
	}
	defer selections.Close()

	var parser web.IngredientParser
	if cfg.OpenAIEnabled() {
		parser = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel)
	} else {
		log.Warn("OPENAI_API_KEY not set, free-text fridge submissions are disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(web.RouterConfig{
		Handler:     web.NewHandler(ingredientService, dishService, selections, parser),
		Logger:      logger.New("http"),
		SessionTTL:  cfg.SessionTTL,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed: %v", err)
		}
	}()

	log.Info("Listening on %s. Press CTRL-C to exit.", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Error running server: %v", err)
		os.Exit(1)
	}
}
