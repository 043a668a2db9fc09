package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	temporalclient "go.temporal.io/sdk/client"

	"girder/internal/analysis"
	"girder/internal/config"
	"girder/internal/coupling"
	"girder/internal/gate"
	"girder/internal/layers"
	"girder/internal/observability"
	"girder/internal/secrets"
	"girder/internal/store"
	storeneo4j "girder/internal/store/neo4j"
	temporalmod "girder/internal/temporal"
)

func main() {
	configPath := "configs/girder.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	audit, err := observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		OutputPath: cfg.Audit.OutputPath,
	})
	if err != nil {
		log.Fatalf("audit log: %v", err)
	}
	defer audit.Close()

	var policy *layers.Policy
	if len(cfg.Policy.Layers) > 0 {
		policy, err = layers.NewPolicy(cfg.Policy.Layers...)
		if err != nil {
			log.Fatalf("layer policy: %v", err)
		}
	}

	analyzer, err := analysis.New(analysis.Config{
		Policy: policy,
		Thresholds: coupling.Thresholds{
			Stable:   cfg.Coupling.StableBelow,
			Unstable: cfg.Coupling.UnstableAbove,
		},
		CacheSize: cfg.Cache.Size,
		Audit:     audit,
	})
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	gates := gate.NewPipeline(
		gate.NewCyclesGate(cfg.Gates.MaxCycles, gate.SeverityCritical),
		gate.NewLayerGate(gate.SeverityRequired),
		gate.NewInstabilityGate(cfg.Gates.MaxUnstableRatio, gate.SeverityAdvisory),
	)

	var repo store.Repository
	if cfg.Graph.URI != "" {
		username := cfg.Graph.Username
		if username == "" {
			username = secrets.GetOrDefault(ctx, string(secrets.SecretGraphUsername), "neo4j")
		}
		password := secrets.GetOrDefault(ctx, string(secrets.SecretGraphPassword), cfg.Graph.Password)

		repo, err = storeneo4j.NewNeo4j(ctx, cfg.Graph.URI, username, password)
		if err != nil {
			log.Fatalf("graph store: %v", err)
		}
		defer repo.Close(ctx)
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Analyzer: analyzer,
		Gates:    gates,
		Store:    repo,
		Audit:    audit,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	w.Stop()
	fmt.Println("Worker stopped")
}
