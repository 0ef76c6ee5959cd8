package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"casebook/internal/config"
	"casebook/internal/manifest"
	"casebook/internal/registry"
	"casebook/internal/store"
	"casebook/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd keeps the registry in sync with manifest edits until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a manifest directory and keep the registry in sync",
	Long: `Watches a directory of YAML story manifests. Each settled save first runs
the dispose callbacks registered by the file's previous load, then replays
the manifest, so an edit-reload cycle replaces state instead of accumulating
it. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	dir := cfg.Watch.Dir
	if len(args) > 0 {
		dir = args[0]
	}

	st := store.New(logger)
	reg := registry.New(st, cfg.RegistryOptions(), logger)
	loader := manifest.NewLoader(builtinCatalog(), logger)

	w, err := watch.New(dir, reg, loader, cfg.Debounce(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	if cfg.InferSeparators {
		if sep, ok, err := reg.InferHierarchySeparator(); err == nil && ok {
			logger.Info("inferred hierarchy separator from kind names", zap.String("separator", sep))
		}
	}

	fmt.Printf("watching %s (%d stories loaded) — Ctrl-C to stop\n", dir, st.Count())
	<-ctx.Done()

	stats := w.GetStats()
	logger.Info("watcher stopped",
		zap.Int("loads", stats.Loads),
		zap.Int("reloads", stats.Reloads),
		zap.Int("removals", stats.Removals),
		zap.Int("errors", stats.Errors),
		zap.Int64("revision", st.Revision()))
	return nil
}
