package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/tranbinhminh1403/back-end-thesis/internal/config"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	cmd := "serve"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServer(cfg, log)
	case "reindex":
		err = runReindex(cfg, log)
	case "similar":
		if len(os.Args) < 3 {
			fmt.Println("Usage: pricecompare similar <product-id>")
			os.Exit(2)
		}
		err = runSimilar(cfg, log, os.Args[2])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("%s: %v", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: pricecompare [command]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  serve          Start the REST and ConnectRPC server (default)")
	fmt.Println("  reindex        Rebuild the Meilisearch product index once")
	fmt.Println("  similar <id>   Print the near-duplicates of a product")
	fmt.Println("  help           Show this help message")
}

func runServer(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	wg := &sync.WaitGroup{}
	if a.index != nil && cfg.IndexSyncSeconds > 0 {
		syncer := search.NewSyncer(a.index, a.catalog, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			syncer.Run(ctx, time.Duration(cfg.IndexSyncSeconds)*time.Second)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("graceful shutdown complete")
	return nil
}

func runReindex(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if a.index == nil {
		return errors.New("MEILI_URL is not set")
	}
	n, err := a.index.Rebuild(ctx, a.catalog)
	if err != nil {
		return err
	}
	fmt.Printf("Index rebuild complete: %d products indexed into %q\n", n, cfg.MeiliIndex)
	return nil
}

func runSimilar(cfg *config.Config, log *logger.Logger, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid product id %q", arg)
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.catalog.SimilarTo(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%d products within ratio %d of #%d\n\n", len(matches), cfg.SimilarityThreshold, id)
	fmt.Println("Ratio | ID     | Normalized name")
	fmt.Println("------|--------|----------------------------------------")
	for _, m := range matches {
		fmt.Printf("%5d | %-6d | %s\n", m.Ratio, m.CandidateID, m.NormalizedName)
	}
	return nil
}
