package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hervehildenbrand/saferoute/pkg/config"
	"github.com/hervehildenbrand/saferoute/pkg/feed"
	"github.com/hervehildenbrand/saferoute/pkg/metrics"
	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/registry"
	"github.com/hervehildenbrand/saferoute/pkg/risk"
	"github.com/hervehildenbrand/saferoute/pkg/server"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const statsInterval = 30 * time.Second

// selectSource picks where locations come from.
// Priority: file > database > embedded dataset.
func selectSource(ctx context.Context, cfg *config.Config) (registry.Source, func(), error) {
	noop := func() {}

	if cfg.Data != "" {
		return registry.NewFileSource(cfg.Data), noop, nil
	}
	if cfg.Database != "" {
		src, db, err := registry.OpenDatabaseSource(ctx, cfg.Database, cfg.LocationsTable)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to location database: %w", err)
		}
		return src, func() { db.Close() }, nil
	}
	return registry.NewEmbeddedSource(), noop, nil
}

func loadRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	src, closeSrc, err := selectSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return registry.Load(ctx, src)
}

func loadAnalyzer(ctx context.Context, cfg *config.Config) (*risk.Analyzer, error) {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return risk.NewAnalyzer(reg), nil
}

func runAnalyze(ctx context.Context, w io.Writer, cfg *config.Config, source, destination string) error {
	a, err := loadAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	result := a.AnalyzeRoute(source, destination)
	if err := printResult(w, cfg.Output, result); err != nil {
		return err
	}
	if !result.OK() {
		return errors.New(result.Message)
	}
	return nil
}

// readRoutes parses a YAML list of {source, destination} pairs.
func readRoutes(path string) ([]models.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}

	var routes []models.Route
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("parsing routes %s: %w", path, err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes in %s", path)
	}
	return routes, nil
}

func runBatch(ctx context.Context, w io.Writer, cfg *config.Config, path string) error {
	routes, err := readRoutes(path)
	if err != nil {
		return err
	}
	a, err := loadAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	return printResults(w, cfg.Output, a.BatchAnalyze(routes))
}

func runAlternatives(ctx context.Context, w io.Writer, cfg *config.Config, source, destination string) error {
	a, err := loadAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	if _, ok := a.Locations().Lookup(source); !ok {
		return fmt.Errorf("location not found: %s", source)
	}
	return printAlternatives(w, cfg.Output, source, destination, a.SafeAlternatives(source, destination))
}

func runMatrix(ctx context.Context, w io.Writer, cfg *config.Config) error {
	a, err := loadAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	return printMatrix(w, cfg.Output, a.RiskMatrix())
}

func runLocations(ctx context.Context, w io.Writer, cfg *config.Config) error {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	return printSummary(w, cfg.Output, reg.Summary())
}

// openSessionLog returns a Redis-backed log when a Redis URL is configured
// and reachable, and an in-memory log otherwise.
func openSessionLog(ctx context.Context, cfg config.ServerConfig, sessionID string) (sessionlog.Log, *redis.Client) {
	if cfg.Redis == "" {
		return sessionlog.NewMemoryLog(cfg.LogCapacity), nil
	}

	opt, err := redis.ParseURL(cfg.Redis)
	if err != nil {
		slog.Warn("invalid Redis URL, using in-memory session log", "error", err)
		return sessionlog.NewMemoryLog(cfg.LogCapacity), nil
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis connection failed, using in-memory session log", "error", err)
		client.Close()
		return sessionlog.NewMemoryLog(cfg.LogCapacity), nil
	}

	slog.Info("connected to Redis", "key", sessionlog.Key(sessionID), "ttl", cfg.SessionTTL)
	return sessionlog.NewRedisLog(client, sessionID, cfg.SessionTTL), client
}

func runServe(ctx context.Context, cfg *config.Config) error {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	analyzer := risk.NewAnalyzer(reg)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	sessionID := uuid.NewString()
	sessionLog, redisClient := openSessionLog(ctx, cfg.Server, sessionID)
	if redisClient != nil {
		defer redisClient.Close()
	}

	hub := feed.NewHub(sessionID, func(clients int) {
		m.FeedClients.Set(float64(clients))
	})
	session := risk.NewSessionWithID(sessionID, analyzer, sessionLog, m, hub)
	defer session.Close()

	slog.Info("session started", "session", sessionID, "locations", reg.Len())

	go logStats(ctx, sessionLog, hub)

	srv := server.New(server.Deps{
		Session:  session,
		Registry: reg,
		Metrics:  m,
		Gatherer: promReg,
		Hub:      hub,
	})
	return srv.Run(ctx, cfg.Server.Addr)
}

// logStats periodically reports session log and feed statistics.
func logStats(ctx context.Context, log sessionlog.Log, hub *feed.Hub) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attrs := []any{"feed_clients", hub.Clients()}
			switch l := log.(type) {
			case *sessionlog.RedisLog:
				for k, v := range l.Stats() {
					attrs = append(attrs, k, v)
				}
			case *sessionlog.MemoryLog:
				attrs = append(attrs, "entries", l.Len(), "entries_dropped", l.Dropped())
			}
			slog.Info("stats", attrs...)
		}
	}
}

func runWatch(ctx context.Context, w io.Writer, cfg *config.Config) error {
	entries := make(chan sessionlog.Entry, 1000)
	client := feed.NewClient(cfg.Watch.URL, entries)
	client.Start()
	defer client.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", "stats", client.Stats())
			return nil
		case e := <-entries:
			if err := printEntry(w, cfg.Output, e); err != nil {
				return err
			}
		}
	}
}
