package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"tokoassist/internal/api"
	"tokoassist/internal/catalog"
	"tokoassist/internal/config"
	"tokoassist/internal/core"
	"tokoassist/internal/session"
	"tokoassist/internal/shopping"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	if err := os.MkdirAll(config.AppConfig.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Flat-file stores
	catalogStore := catalog.NewStore(filepath.Join(config.AppConfig.DataDir, "products.json"))

	sessionService, err := session.NewService(session.NewFileStore(filepath.Join(config.AppConfig.DataDir, "sessions.json")))
	if err != nil {
		log.Fatalf("Failed to initialize session service: %v", err)
	}

	shoppingService, err := shopping.NewService(shopping.NewFileStore(filepath.Join(config.AppConfig.DataDir, "shopping_list.json")))
	if err != nil {
		log.Fatalf("Failed to initialize shopping list service: %v", err)
	}

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Initialize Chat service (the prompt router)
	chatService := core.NewChatService(catalogStore, llmService)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, catalogStore, sessionService, shoppingService)
	chatLimiter := rate.NewLimiter(rate.Limit(config.AppConfig.ChatRPS), config.AppConfig.ChatBurst)
	router := api.NewRouter(apiHandler, chatLimiter)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // coarse ceiling on streamed chat responses
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
