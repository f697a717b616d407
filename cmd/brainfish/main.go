// Package main implements the stdio UCI process: a protocol session
// over standard input/output around the engine core.
package main

import (
	"flag"
	"log"
	"os"

	"brainfish/internal/book"
	"brainfish/internal/config"
	"brainfish/internal/engine"
	"brainfish/internal/search"
	"brainfish/internal/session"
	"brainfish/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override environment configuration
	flag.StringVar(&cfg.EngineName, "name", cfg.EngineName, "Engine name reported in the uci banner")
	flag.StringVar(&cfg.EngineAuthor, "author", cfg.EngineAuthor, "Engine author reported in the uci banner")
	flag.StringVar(&cfg.BookPath, "book-path", cfg.BookPath, "Path to SQLite opening-book file (disables persistence if empty)")
	flag.StringVar(&cfg.EnginePath, "engine-path", cfg.EnginePath, "Path to an external UCI engine binary (uses built-in search if empty)")
	flag.Parse()

	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer cleanup()

	// A failed initialization aborts startup entirely; the per-line
	// loop never starts.
	if !eng.Initialize() {
		log.Fatal("Failed to initialize engine")
	}

	// Protocol responses go to stdout; all diagnostics stay on stderr.
	s := session.New(os.Stdin, os.Stdout, eng)
	if err := s.Run(); err != nil {
		log.Fatalf("Session error: %v", err)
	}
}

// buildEngine assembles the seed, search and persistence collaborators
// from configuration. The cleanup function releases whatever was opened.
func buildEngine(cfg config.Config) (*engine.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	seeders := book.MultiSeeder{book.StaticSeeder{}}
	var rec engine.Recorder

	if cfg.BookPath != "" {
		store, err := storage.NewStore(cfg.BookPath, false)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close book storage cleanly: %v", err)
			}
		})
		if err := store.InitDB(); err != nil {
			cleanup()
			return nil, nil, err
		}
		seeders = append(seeders, store)
		rec = store
		log.Printf("Opening book persistence: %s", cfg.BookPath)
	}

	var adapter search.Adapter = search.NewMaterial()
	if cfg.EnginePath != "" {
		uci, err := search.NewUCI(cfg.EnginePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := uci.Close(); err != nil {
				log.Printf("Warning: failed to close search engine cleanly: %v", err)
			}
		})
		adapter = uci
		log.Printf("Search: external engine at %s", cfg.EnginePath)
	}

	eng := engine.New(engine.Config{
		Name:   cfg.EngineName,
		Author: cfg.EngineAuthor,
	}, seeders, adapter, rec)

	return eng, cleanup, nil
}
