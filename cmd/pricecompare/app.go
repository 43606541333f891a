package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tranbinhminh1403/back-end-thesis/internal/api"
	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/config"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/matching"
	"github.com/tranbinhminh1403/back-end-thesis/internal/rpc"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
	"github.com/tranbinhminh1403/back-end-thesis/internal/storage/memstore"
	"github.com/tranbinhminh1403/back-end-thesis/internal/storage/postgres"
	"github.com/tranbinhminh1403/back-end-thesis/internal/wishlist"
)

// app holds every wired component. close releases the connection pools.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	catalog  *catalog.Service
	wishlist *wishlist.Service
	index    *search.Index
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var st catalog.Store
	var lists wishlist.Store
	switch cfg.Store {
	case "memory":
		mem, err := memstore.Load(cfg.FixturesPath)
		if err != nil {
			return nil, err
		}
		log.Info("store: in-memory fixtures from %s", cfg.FixturesPath)
		st = mem
		lists = wishlist.NewMemoryStore()
	case "postgres":
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		log.Info("store: postgres connected")
		st = postgres.New(db)

		gdb, err := wishlist.Open(cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open wishlist database: %w", err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		gs := wishlist.NewGormStore(gdb)
		if err := gs.Migrate(); err != nil {
			a.close()
			return nil, fmt.Errorf("migrate wishlist tables: %w", err)
		}
		lists = gs
	default:
		return nil, fmt.Errorf("unknown STORE %q (want postgres or memory)", cfg.Store)
	}

	finder := matching.New(matching.WithThreshold(cfg.SimilarityThreshold))
	a.catalog = catalog.NewService(st, finder, cfg.HistoryWindow, log)
	a.wishlist = wishlist.NewService(lists, st, log)
	if cfg.SearchEnabled() {
		a.index = search.New(cfg.MeiliURL, cfg.MeiliAPIKey, cfg.MeiliIndex, log)
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close: %v", err)
		}
	}
	a.closers = nil
}

// handler mounts the REST routes and the Connect service on one mux, wrapped
// with CORS and h2c.
func (a *app) handler() http.Handler {
	if a.cfg.GinMode != "" {
		gin.SetMode(a.cfg.GinMode)
	}
	router := api.NewRouter(api.NewHandler(a.catalog, a.wishlist, a.index, a.log), a.cfg.RequestTimeout)
	path, rpcHandler := rpc.NewHandler(rpc.NewServer(a.catalog, a.wishlist, a.index, a.log))

	mux := http.NewServeMux()
	mux.Handle(path, rpcHandler)
	mux.Handle("/", router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Connect-Protocol-Version", "X-Request-ID"},
		ExposedHeaders:   []string{"Grpc-Status", "Grpc-Message", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return h2c.NewHandler(corsHandler.Handler(mux), &http2.Server{})
}
