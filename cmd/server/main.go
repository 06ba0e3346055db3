package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/safescan/backend/config"
	httpDelivery "github.com/safescan/backend/internal/delivery/http"
	"github.com/safescan/backend/internal/infrastructure/cache"
	"github.com/safescan/backend/internal/infrastructure/gemini"
	"github.com/safescan/backend/internal/infrastructure/openfoodfacts"
	"github.com/safescan/backend/internal/usecase"
)

func main() {
	// Load configuration
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SafeScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	if cfg.Region != "" {
		log.Printf("Region: %s", cfg.Region)
	}
	if path := loader.ConfigFileUsed(); path != "" {
		log.Printf("Config file: %s", path)
	}

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(10 * time.Minute)
	defer memoryCache.Close()
	log.Printf("Cache: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	geminiClient := gemini.NewClient(cfg.Gemini.BaseURL)
	productClient := openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.Timeout, cfg.OpenFoodFacts.RequestsPerMinute)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		geminiClient.SetDebug(true)
		productClient.SetDebug(true)
		log.Printf("Upstream client debug mode enabled")
	}

	if cfg.Gemini.APIKey != "" {
		log.Printf("Gemini API configured: %s (key: set)", cfg.Gemini.BaseURL)
	} else {
		log.Printf("WARNING: Gemini API key NOT CONFIGURED - model requests will fail with configuration_missing")
	}
	log.Printf("Model candidates: %s", strings.Join(cfg.Gemini.Models, " -> "))

	// Initialize usecase layer
	resolver, err := usecase.NewResolver(geminiClient, usecase.ResolverConfig{
		Credential:        cfg.Gemini.APIKey,
		Models:            cfg.Gemini.Models,
		PerRequestTimeout: cfg.Gemini.RequestTimeout,
		TotalTimeout:      cfg.Gemini.TotalTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create resolver: %v", err)
	}

	analyzer := usecase.NewSafetyAnalyzer(resolver)
	productService := usecase.NewProductService(
		memoryCache,
		productClient,
		analyzer,
		usecase.ProductServiceConfig{CacheTTL: cfg.Cache.TTL},
	)

	// Model list and credential follow config file edits without a restart
	loader.Watch(func(updated *config.Config) {
		if err := resolver.SetCandidates(updated.Gemini.Models); err != nil {
			log.Printf("[Config] Keeping previous model candidates: %v", err)
			return
		}
		resolver.SetCredential(updated.Gemini.APIKey)
		log.Printf("[Config] Model candidates: %s", strings.Join(updated.Gemini.Models, " -> "))
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, analyzer, productService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("Shutting down on %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
