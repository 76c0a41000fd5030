// Command profiler fetches a Reddit user's recent comments and asks Gemini
// to profile the user from them.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/letieu/reddit-profiler/config"
	"github.com/letieu/reddit-profiler/internal/profiler"
	"github.com/letieu/reddit-profiler/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "profiler",
		Short:         "Profile a Reddit user from their comments",
		Long:          "profiler fetches a Reddit user's recent comments, keeps them in a local session and runs Gemini analysis prompts over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newPromptsCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newServeCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// app is what every command needs: the loaded config, the session store
// and a profiler over it.
type app struct {
	cfg      *config.Config
	db       store.Store
	profiler *profiler.Profiler
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

// openApp wires the full pipeline. Missing credentials fail here, before
// any request.
func openApp(ctx context.Context) (*app, error) {
	cfg, db, err := openStore()
	if err != nil {
		return nil, err
	}

	p, err := profiler.New(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: db, profiler: p}, nil
}

// openLocal is for commands that only read or delete saved sessions.
func openLocal() (*app, error) {
	cfg, db, err := openStore()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, db: db, profiler: profiler.Local(db)}, nil
}

func openStore() (*config.Config, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, db, nil
}
