package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyforge/storyforge/internal/api"
	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/generate"
	"github.com/storyforge/storyforge/internal/rules"
	"github.com/storyforge/storyforge/internal/store"
	"github.com/storyforge/storyforge/internal/watcher"
)

func main() {
	configPath := flag.String("config", "storyforge.yaml", "path to config file")
	inMemory := flag.Bool("in-memory", false, "use the in-memory store instead of SQLite")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Rule tables: file if present, built-in defaults otherwise
	source := rules.NewSource(nil)
	if cfg.RulesFileExists() {
		if err := source.ReloadFile(cfg.RulesPath); err != nil {
			log.Fatalf("rules: %v", err)
		}
	}

	var st store.Store
	if *inMemory {
		st = store.NewMemoryStore()
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			log.Fatalf("data dir: %v", err)
		}
		st, err = store.NewSQLiteStore(cfg.ResolvedDatabasePath())
		if err != nil {
			log.Fatalf("store: %v", err)
		}
	}
	defer st.Close()

	server := api.NewServer(cfg, st, generate.NewTemplateGenerator(), source)

	if cfg.WatchRules && cfg.RulesFileExists() {
		w := watcher.WatchRules(cfg.RulesPath, time.Duration(cfg.WatchDebounce)*time.Millisecond,
			func(path string) {
				if err := source.ReloadFile(cfg.RulesPath); err != nil {
					log.Printf("rules reload: %v", err)
					return
				}
				log.Printf("rules reloaded from %s", cfg.RulesPath)
			},
			func(err error) {
				log.Printf("rules watcher: %v", err)
			},
		)
		if err := w.Start(); err != nil {
			log.Printf("rules watcher: %v", err)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
