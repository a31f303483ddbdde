package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"microsoc/config"
	"microsoc/internal/api"
	"microsoc/internal/escalate"
	"microsoc/internal/events"
	"microsoc/internal/incidents"
	inputredis "microsoc/internal/input/redis"
	"microsoc/internal/input/sim"
	"microsoc/internal/logger"
	"microsoc/internal/operators"
	"microsoc/internal/output/eventclickhouse"
	"microsoc/internal/output/eventhttp"
	"microsoc/internal/output/eventjson"
	"microsoc/internal/output/incidentjson"
	"microsoc/internal/output/natspub"
	"microsoc/internal/pipeline"
	"microsoc/internal/pubsub"
	"microsoc/internal/reputation"
	"microsoc/internal/rules"
	"microsoc/internal/sourcestate"
	"microsoc/internal/traffic"
	"microsoc/internal/ws"
	"microsoc/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("microsoc.yml"); err == nil {
		return "microsoc.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "microsoc.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "microsoc.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.MicroSOC.Input.Mode == "" {
		cfg.MicroSOC.Input.Mode = "sim"
	}
	if cfg.MicroSOC.Input.Redis.Addr == "" {
		cfg.MicroSOC.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.MicroSOC.Input.Redis.Key == "" {
		cfg.MicroSOC.Input.Redis.Key = "attack_events"
	}
	if cfg.MicroSOC.Input.Redis.BlockTimeout == 0 {
		cfg.MicroSOC.Input.Redis.BlockTimeout = 5 * time.Second
	}
	if cfg.MicroSOC.Input.Sim.Interval <= 0 {
		cfg.MicroSOC.Input.Sim.Interval = 3 * time.Second
	}

	if cfg.MicroSOC.Pipeline.Workers <= 0 {
		cfg.MicroSOC.Pipeline.Workers = 4
	}

	if cfg.MicroSOC.Reputation.CacheSize <= 0 {
		cfg.MicroSOC.Reputation.CacheSize = 4096
	}

	if cfg.MicroSOC.Traffic.Window <= 0 {
		cfg.MicroSOC.Traffic.Window = 10 * time.Second
	}
	if cfg.MicroSOC.Traffic.Threshold <= 0 {
		cfg.MicroSOC.Traffic.Threshold = 5
	}

	if cfg.MicroSOC.Events.Retention <= 0 {
		cfg.MicroSOC.Events.Retention = 10 * time.Minute
	}
	if cfg.MicroSOC.Events.MaxRecent <= 0 {
		cfg.MicroSOC.Events.MaxRecent = 1000
	}

	if cfg.MicroSOC.Output.Events.Mode == "" {
		cfg.MicroSOC.Output.Events.Mode = "file"
	}
	if cfg.MicroSOC.Output.Events.File.Path == "" {
		cfg.MicroSOC.Output.Events.File.Path = "output/events.jsonl"
	}
	if cfg.MicroSOC.Output.Events.ClickHouse.Database == "" {
		cfg.MicroSOC.Output.Events.ClickHouse.Database = "microsoc"
	}
	if cfg.MicroSOC.Output.Events.ClickHouse.Table == "" {
		cfg.MicroSOC.Output.Events.ClickHouse.Table = "attack_events"
	}
	if cfg.MicroSOC.Output.Incidents.Mode == "" {
		cfg.MicroSOC.Output.Incidents.Mode = "file"
	}
	if cfg.MicroSOC.Output.Incidents.File.Path == "" {
		cfg.MicroSOC.Output.Incidents.File.Path = "output/incidents.jsonl"
	}

	if cfg.MicroSOC.API.Addr == "" {
		cfg.MicroSOC.API.Addr = ":8080"
	}

	if len(cfg.MicroSOC.Operators) == 0 {
		cfg.MicroSOC.Operators = []config.OperatorConfig{
			{ID: "op-1", Name: "Admin", Role: "Admin"},
			{ID: "op-2", Name: "Analyst", Role: "Analyst"},
		}
	}

	if cfg.MicroSOC.Logging.Level == "" {
		cfg.MicroSOC.Logging.Level = "info"
	}
}

func buildSource(cfg *config.Config) (pipeline.Source, error) {
	switch cfg.MicroSOC.Input.Mode {
	case "redis":
		return inputredis.NewConsumer(inputredis.Config{
			Addr:         cfg.MicroSOC.Input.Redis.Addr,
			Password:     cfg.MicroSOC.Input.Redis.Password,
			DB:           cfg.MicroSOC.Input.Redis.DB,
			Key:          cfg.MicroSOC.Input.Redis.Key,
			BlockTimeout: cfg.MicroSOC.Input.Redis.BlockTimeout,
		})
	case "sim":
		return sim.NewGenerator(sim.Config{
			Interval:      cfg.MicroSOC.Input.Sim.Interval,
			AttackTypes:   cfg.MicroSOC.Input.Sim.AttackTypes,
			TargetSystems: cfg.MicroSOC.Input.Sim.TargetSystems,
		}), nil
	default:
		return nil, errors.New("unknown input mode: " + cfg.MicroSOC.Input.Mode)
	}
}

func buildEventWriter(cfg *config.Config) (pipeline.EventWriter, error) {
	switch cfg.MicroSOC.Output.Events.Mode {
	case "file":
		w, err := eventjson.NewWriter(cfg.MicroSOC.Output.Events.File.Path)
		if err != nil {
			return nil, err
		}
		logger.Infof("Event output mode: file (%s)", cfg.MicroSOC.Output.Events.File.Path)
		return w, nil
	case "http":
		w, err := eventhttp.NewWriter(eventhttp.Config{
			URL:     cfg.MicroSOC.Output.Events.HTTP.URL,
			Timeout: cfg.MicroSOC.Output.Events.HTTP.Timeout,
			Headers: cfg.MicroSOC.Output.Events.HTTP.Headers,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof("Event output mode: http (%s)", cfg.MicroSOC.Output.Events.HTTP.URL)
		return w, nil
	case "clickhouse":
		w, err := eventclickhouse.NewWriter(eventclickhouse.Config{
			URL:      cfg.MicroSOC.Output.Events.ClickHouse.URL,
			Database: cfg.MicroSOC.Output.Events.ClickHouse.Database,
			Table:    cfg.MicroSOC.Output.Events.ClickHouse.Table,
			Username: cfg.MicroSOC.Output.Events.ClickHouse.Username,
			Password: cfg.MicroSOC.Output.Events.ClickHouse.Password,
			Timeout:  cfg.MicroSOC.Output.Events.ClickHouse.Timeout,
			Headers:  cfg.MicroSOC.Output.Events.ClickHouse.Headers,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof("Event output mode: clickhouse (%s/%s.%s)", cfg.MicroSOC.Output.Events.ClickHouse.URL, cfg.MicroSOC.Output.Events.ClickHouse.Database, cfg.MicroSOC.Output.Events.ClickHouse.Table)
		return w, nil
	default:
		return nil, errors.New("unknown event output mode: " + cfg.MicroSOC.Output.Events.Mode)
	}
}

func seedOperators(cfg *config.Config) []models.Operator {
	seed := make([]models.Operator, 0, len(cfg.MicroSOC.Operators))
	for _, op := range cfg.MicroSOC.Operators {
		role := models.RoleAnalyst
		if strings.EqualFold(op.Role, string(models.RoleAdmin)) {
			role = models.RoleAdmin
		}
		seed = append(seed, models.Operator{ID: op.ID, Name: op.Name, Role: role})
	}
	return seed
}

func main() {
	configArg := ""
	if len(os.Args) > 1 {
		configArg = os.Args[1]
	}
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.MicroSOC.Logging.Enabled, cfg.MicroSOC.Logging.Level, cfg.MicroSOC.Logging.File, cfg.MicroSOC.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("MicroSOC starting")
	logger.Infof("Config loaded from: %s", configPath)

	source, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("Failed to create input source: %v", err)
	}
	logger.Infof("Input mode: %s", cfg.MicroSOC.Input.Mode)

	var lookup reputation.Lookup
	if cfg.MicroSOC.Reputation.URL != "" {
		httpLookup, err := reputation.NewHTTPLookup(reputation.HTTPConfig{
			URL:     cfg.MicroSOC.Reputation.URL,
			APIKey:  cfg.MicroSOC.Reputation.APIKey,
			Timeout: cfg.MicroSOC.Reputation.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to create reputation lookup: %v", err)
		}
		lookup = httpLookup
		logger.Infof("Reputation lookup: %s", cfg.MicroSOC.Reputation.URL)
	} else {
		logger.Warnf("No reputation URL configured; all public addresses resolve via fallback")
	}

	resolver, err := reputation.NewResolver(cfg.MicroSOC.Reputation.CacheSize, lookup)
	if err != nil {
		log.Fatalf("Failed to create reputation resolver: %v", err)
	}

	var engine rules.Engine
	if cfg.MicroSOC.Rules.Enabled {
		if strings.TrimSpace(cfg.MicroSOC.Rules.Path) == "" {
			logger.Warnf("Rules enabled but rules.path is empty; event tagging disabled")
		} else {
			sigmaEngine, stats, err := rules.NewSigmaEngine(cfg.MicroSOC.Rules.Path)
			if err != nil {
				log.Fatalf("Failed to load Sigma rules: %v", err)
			}
			engine = sigmaEngine
			logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
				stats.Loaded,
				stats.SkippedComplex,
				stats.SkippedDatasource,
				stats.SkippedInvalid,
				stats.TotalFiles,
			)
			if stats.Loaded == 0 {
				logger.Warnf("No compatible Sigma rules loaded; event tagging is effectively disabled")
			}
		}
	}

	eventWriter, err := buildEventWriter(cfg)
	if err != nil {
		log.Fatalf("Failed to create event writer: %v", err)
	}

	var incidentWriter pipeline.IncidentWriter
	if cfg.MicroSOC.Output.Incidents.Mode == "file" {
		w, err := incidentjson.NewWriter(cfg.MicroSOC.Output.Incidents.File.Path)
		if err != nil {
			log.Fatalf("Failed to create incident writer: %v", err)
		}
		incidentWriter = w
		logger.Infof("Incident output mode: file (%s)", cfg.MicroSOC.Output.Incidents.File.Path)
	}

	var stateWriter pipeline.SourceStateWriter
	if cfg.MicroSOC.SourceState.Enabled {
		store, err := sourcestate.NewRedisStore(sourcestate.Config{
			Addr:      cfg.MicroSOC.SourceState.Addr,
			Password:  cfg.MicroSOC.SourceState.Password,
			DB:        cfg.MicroSOC.SourceState.DB,
			KeyPrefix: cfg.MicroSOC.SourceState.KeyPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to connect source state store: %v", err)
		}
		stateWriter = store
		logger.Infof("Source state index: redis (%s)", cfg.MicroSOC.SourceState.Addr)
	}

	var natsPub *natspub.Publisher
	if cfg.MicroSOC.NATS.Enabled {
		natsPub, err = natspub.NewPublisher(natspub.Config{
			URL:           cfg.MicroSOC.NATS.URL,
			SubjectPrefix: cfg.MicroSOC.NATS.SubjectPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to connect NATS: %v", err)
		}
		logger.Infof("NATS publication enabled (%s)", cfg.MicroSOC.NATS.URL)
	}

	broker := pubsub.NewBroker(0)
	recent := events.NewStore(events.Config{
		Retention: cfg.MicroSOC.Events.Retention,
		MaxRecent: cfg.MicroSOC.Events.MaxRecent,
	})
	incidentStore := incidents.NewStore()
	directory := operators.NewDirectory(seedOperators(cfg))

	pipe := pipeline.New(pipeline.Options{
		Resolver: resolver,
		Tracker: traffic.NewTracker(traffic.Config{
			Window:    cfg.MicroSOC.Traffic.Window,
			Threshold: cfg.MicroSOC.Traffic.Threshold,
		}),
		Engine:         engine,
		Escalator:      escalate.NewEscalator(incidentStore),
		Recent:         recent,
		Broker:         broker,
		EventWriter:    eventWriter,
		IncidentWriter: incidentWriter,
		StateWriter:    stateWriter,
		NATS:           natsPub,
		Workers:        cfg.MicroSOC.Pipeline.Workers,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := ws.NewHub(broker)
	go hub.Run(ctx)

	go func() {
		if err := pipe.Run(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("Pipeline error: %v", err)
		}
	}()

	server := &http.Server{
		Addr:    cfg.MicroSOC.API.Addr,
		Handler: api.NewServer(recent, incidentStore, directory, broker, hub).Routes(),
	}
	go func() {
		logger.Infof("API listening on %s", cfg.MicroSOC.API.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error shutting down API server: %v", err)
	}

	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}
	if err := source.Close(); err != nil {
		logger.Errorf("Error closing input source: %v", err)
	}

	logger.Infof("MicroSOC stopped")
}
