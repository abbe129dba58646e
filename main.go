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

	"github.com/emiswap/info-api/backend"
	"github.com/emiswap/info-api/chain"
	"github.com/emiswap/info-api/config"
	"github.com/emiswap/info-api/logos"
	"github.com/emiswap/info-api/metrics"
	"github.com/emiswap/info-api/prices"
	"github.com/emiswap/info-api/state"
	"github.com/emiswap/info-api/stats"
	"github.com/emiswap/info-api/subgraph"
	"github.com/go-playground/validator/v10"
	"github.com/treeder/gcputils"
	"github.com/treeder/gotils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("couldn't load config: %v\n", err)
	}
	m := metrics.New()
	hc := &http.Client{Timeout: 30 * time.Second}

	cg, err := prices.NewCoingecko(ctx, cfg.CoingeckoURL, cfg.CoingeckoRPS, cfg.RefreshInterval, m, hc)
	if err != nil {
		log.Fatalf("couldn't set up coingecko: %v\n", err)
	}

	s := &server{
		cfg:      cfg,
		networks: map[string]*network{},
		metrics:  m,
		validate: validator.New(),
	}
	for _, n := range cfg.Networks {
		nw, err := setupNetwork(ctx, cfg, n, m, hc, cg)
		if err != nil {
			log.Fatalf("couldn't set up network %v: %v\n", n.Name, err)
		}
		s.networks[n.Name] = nw
	}

	go s.refresh(ctx, cfg.RefreshInterval)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%v", cfg.Port),
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	gcputils.With("port", cfg.Port).Info().Println("Server starting...")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// setupNetwork wires the subgraph, cache and helpers for one chain
func setupNetwork(ctx context.Context, cfg *config.Config, n *config.Network, m *metrics.Metrics, hc *http.Client, cg stats.PriceSource) (*network, error) {
	ctx = gotils.With(ctx, "network", n.Name)

	var blocks backend.BlockSource
	if n.BlocksURL != "" {
		blocks = backend.NewBlocksSubgraph(subgraph.New(n.Name+"-blocks", n.BlocksURL, cfg.SubgraphRPS, m, hc))
	} else {
		loc, err := chain.NewLocator(ctx, n.RPCURL)
		if err != nil {
			return nil, gotils.C(ctx).Errorf("error on chain.NewLocator: %v", err)
		}
		blocks = loc
	}

	sg := backend.NewSubgraph(n.FactoryAddress, subgraph.New(n.Name, n.SubgraphURL, cfg.SubgraphRPS, m, hc), blocks)
	db, err := backend.NewCacheBackend(ctx, sg, cfg.CacheTTL, m)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("couldn't set up cache: %v", err)
	}

	lr, err := logos.NewResolver(ctx, n.LogoURLs, n.PlaceholderLogo, cfg.LogoCacheSize, hc)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error on logos.NewResolver: %v", err)
	}

	svc := stats.New(n, db, state.NewStore(), cg,
		stats.WithAllTimeMonths(cfg.AllTimeMonths),
		stats.WithConcurrency(cfg.TopTokensConcurrency),
	)
	return &network{stats: svc, logos: lr}, nil
}

// refresh clears every network's state on a ticker and warms it back up so
// the first visitor after a reset doesn't pay for the subgraph round trips
func (s *server) refresh(ctx context.Context, every time.Duration) {
	for name, nw := range s.networks {
		go warm(ctx, name, nw.stats)
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for name, nw := range s.networks {
			if err := nw.stats.Reset(); err != nil {
				gcputils.Error().Printf("error resetting %v: %v", name, err)
				continue
			}
			go warm(ctx, name, nw.stats)
		}
	}
}

func warm(ctx context.Context, name string, svc *stats.Service) {
	l := gcputils.With("network", name)
	started := time.Now()
	if _, err := svc.Global(ctx); err != nil {
		l.Error().Printf("error warming global: %v", err)
	}
	if _, err := svc.TopTokens(ctx); err != nil {
		l.Error().Printf("error warming tokens: %v", err)
	}
	if _, err := svc.TopPairs(ctx); err != nil {
		l.Error().Printf("error warming pairs: %v", err)
	}
	l.Info().Printf("warmed in %v", time.Since(started))
}
