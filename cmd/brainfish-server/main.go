// Package main implements the HTTP API server exposing the engine's
// analysis, best-move and opening-book operations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brainfish/internal/book"
	"brainfish/internal/config"
	"brainfish/internal/engine"
	"brainfish/internal/search"
	"brainfish/internal/server"
	"brainfish/internal/storage"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		apiHost = flag.String("api-host", "localhost", "API server host")
		apiPort = flag.Int("api-port", 8080, "API server port")
		dev     = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL journal)")
		pidPath = flag.String("pid", "", "Optional path to write PID file")
		pidLock = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.StringVar(&cfg.BookPath, "book-path", cfg.BookPath, "Path to SQLite opening-book file (disables persistence if empty)")
	flag.StringVar(&cfg.EnginePath, "engine-path", cfg.EnginePath, "Path to an external UCI engine binary (uses built-in search if empty)")
	flag.Parse()

	if *pidLock && *pidPath == "" {
		log.Fatal("Error: -pid-lock flag requires the -pid flag to be set")
	}

	if *pidPath != "" {
		cleanup, err := writePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatalf("Failed to manage PID file: %v", err)
		}
		defer cleanup()
		log.Printf("PID file created at: %s (lock: %v)", *pidPath, *pidLock)
	}

	// 1. Opening-book storage (optional)
	var store *storage.Store
	seeders := book.MultiSeeder{book.StaticSeeder{}}
	var rec engine.Recorder
	if cfg.BookPath != "" {
		log.Printf("Initializing opening-book storage at: %s", cfg.BookPath)
		store, err = storage.NewStore(cfg.BookPath, *dev)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if err := store.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close storage cleanly: %v", err)
			}
		}()
		seeders = append(seeders, store)
		rec = store
	} else {
		log.Printf("Opening-book persistence disabled (use -book-path to enable)")
	}

	// 2. Search adapter
	var adapter search.Adapter = search.NewMaterial()
	if cfg.EnginePath != "" {
		uci, err := search.NewUCI(cfg.EnginePath)
		if err != nil {
			log.Fatalf("Failed to start search engine: %v", err)
		}
		defer uci.Close()
		adapter = uci
		log.Printf("Search: external engine at %s", cfg.EnginePath)
	} else {
		log.Printf("Search: built-in material adapter")
	}

	// 3. Engine core; a failed initialization aborts startup
	eng := engine.New(engine.Config{
		Name:   cfg.EngineName,
		Author: cfg.EngineAuthor,
	}, seeders, adapter, rec)
	if !eng.Initialize() {
		log.Fatal("Failed to initialize engine")
	}

	// 4. Fiber app
	app := server.NewFiberApp(eng, store, cfg, *dev)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		log.Printf("BrainFish API server starting...")
		log.Printf("API Listening on: http://%s", apiAddr)
		log.Printf("API Version: v1")
		log.Printf("Book entries: %d", eng.BookSize())
		if *dev {
			log.Printf("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Printf("Rate Limit: 10 requests/second per IP")
		}
		log.Printf("API Endpoints: http://%s/api/v1/[analyze|bestmove|book]", apiAddr)
		log.Printf("Health: http://%s/health", apiAddr)

		if err := app.Listen(apiAddr); err != nil {
			log.Printf("API server listen error: %v", err)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
