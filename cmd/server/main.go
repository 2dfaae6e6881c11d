package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/metaclip/pkg/metaclip/api"
	"github.com/tendant/metaclip/pkg/metaclip/config"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	// Build the service graph from configuration
	runtime, err := serverConfig.Build()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	// Create HTTP server
	server := api.NewServer(runtime.Service, runtime.Files, runtime.Hub)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Metaclip server starting on port %s (env: %s)", serverConfig.Port, serverConfig.Environment)
		log.Printf("Catalog: %s, blob storage: %s", serverConfig.DatabaseType, serverConfig.StorageType)

		var err error
		if serverConfig.TLSCertFile != "" {
			err = httpServer.ListenAndServeTLS(serverConfig.TLSCertFile, serverConfig.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Drain live connections and release catalog resources
	if err := runtime.Close(); err != nil {
		log.Printf("Cleanup error: %v", err)
	}

	log.Println("Server exiting")
}
