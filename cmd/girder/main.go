package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"girder/internal/analysis"
	"girder/internal/config"
	"girder/internal/coupling"
	"girder/internal/facts"
	"girder/internal/gate"
	"girder/internal/layers"
	"girder/internal/observability"
	"girder/internal/render"
	"girder/internal/report"
	"girder/internal/secrets"
	"girder/internal/server"
	"girder/internal/store"
	storeneo4j "girder/internal/store/neo4j"
)

func main() {
	var (
		factsPath  string
		outputPath string
		configPath string
		jsonReport bool
	)

	rootCmd := &cobra.Command{
		Use:   "girder",
		Short: "Module dependency graph analyzer",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a dependency fact file and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(configPath, factsPath, outputPath, jsonReport)
		},
	}
	analyzeCmd.Flags().StringVar(&factsPath, "facts", "", "Facts file (.json, .yaml, .jsonl)")
	analyzeCmd.Flags().StringVar(&outputPath, "output", "", "Write report JSON to this path")
	analyzeCmd.Flags().StringVar(&configPath, "config", "configs/girder.yaml", "Config file path")
	analyzeCmd.Flags().BoolVar(&jsonReport, "json", false, "Print the report as JSON")
	_ = analyzeCmd.MarkFlagRequired("facts")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Analyze and evaluate quality gates, failing on violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(configPath, factsPath, jsonReport)
		},
	}
	checkCmd.Flags().StringVar(&factsPath, "facts", "", "Facts file (.json, .yaml, .jsonl)")
	checkCmd.Flags().StringVar(&configPath, "config", "configs/girder.yaml", "Config file path")
	checkCmd.Flags().BoolVar(&jsonReport, "json", false, "Print gate results as JSON")
	_ = checkCmd.MarkFlagRequired("facts")

	var renderFormat string
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dependency graph as a diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(configPath, factsPath, outputPath, renderFormat)
		},
	}
	renderCmd.Flags().StringVar(&factsPath, "facts", "", "Facts file (.json, .yaml, .jsonl)")
	renderCmd.Flags().StringVar(&outputPath, "output", "", "Write diagram to this path (default stdout)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "dot", "Diagram format: dot or mermaid")
	renderCmd.Flags().StringVar(&configPath, "config", "configs/girder.yaml", "Config file path")
	_ = renderCmd.MarkFlagRequired("facts")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Push the dependency graph to the configured graph store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath, factsPath)
		},
	}
	exportCmd.Flags().StringVar(&factsPath, "facts", "", "Facts file (.json, .yaml, .jsonl)")
	exportCmd.Flags().StringVar(&configPath, "config", "configs/girder.yaml", "Config file path")
	_ = exportCmd.MarkFlagRequired("facts")

	var serveAddr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, serveAddr)
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&configPath, "config", "configs/girder.yaml", "Config file path")

	rootCmd.AddCommand(analyzeCmd, checkCmd, renderCmd, exportCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(configPath string) *config.Config {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	return cfg
}

func buildAnalyzer(cfg *config.Config) (*analysis.Analyzer, error) {
	var policy *layers.Policy
	if len(cfg.Policy.Layers) > 0 {
		p, err := layers.NewPolicy(cfg.Policy.Layers...)
		if err != nil {
			return nil, fmt.Errorf("layer policy: %w", err)
		}
		policy = p
	}

	return analysis.New(analysis.Config{
		Policy: policy,
		Thresholds: coupling.Thresholds{
			Stable:   cfg.Coupling.StableBelow,
			Unstable: cfg.Coupling.UnstableAbove,
		},
		CacheSize: cfg.Cache.Size,
	})
}

// openGraphStore dials the configured Neo4j store, resolving credentials
// through the secrets backends when the config leaves them blank.
func openGraphStore(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	username := cfg.Graph.Username
	if username == "" {
		username = secrets.GetOrDefault(ctx, string(secrets.SecretGraphUsername), "neo4j")
	}
	password := secrets.GetOrDefault(ctx, string(secrets.SecretGraphPassword), cfg.Graph.Password)
	return storeneo4j.NewNeo4j(ctx, cfg.Graph.URI, username, password)
}

func buildGates(cfg *config.Config) *gate.Pipeline {
	return gate.NewPipeline(
		gate.NewCyclesGate(cfg.Gates.MaxCycles, gate.SeverityCritical),
		gate.NewLayerGate(gate.SeverityRequired),
		gate.NewInstabilityGate(cfg.Gates.MaxUnstableRatio, gate.SeverityAdvisory),
	)
}

func runAnalyze(configPath, factsPath, outputPath string, jsonReport bool) error {
	cfg := loadConfig(configPath)

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	fs, err := facts.Load(factsPath)
	if err != nil {
		return err
	}

	rep, err := analyzer.Analyze(context.Background(), fs)
	if err != nil {
		return err
	}

	if outputPath != "" {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if jsonReport {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(report.Format(rep))
	}
	return nil
}

func runCheck(configPath, factsPath string, jsonReport bool) error {
	cfg := loadConfig(configPath)

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	fs, err := facts.Load(factsPath)
	if err != nil {
		return err
	}

	rep, err := analyzer.Analyze(context.Background(), fs)
	if err != nil {
		return err
	}

	result := buildGates(cfg).Run(rep)

	if jsonReport {
		data, err := jsonIndent(result)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(result.Summary)
		for _, gr := range result.Gates {
			fmt.Printf("  [%s] %s: %s\n", gr.Status, gr.Name, gr.Message)
			for _, d := range gr.Details {
				fmt.Printf("      %s\n", d)
			}
		}
	}

	if result.Status != gate.GatePassed {
		return fmt.Errorf("quality gates failed")
	}
	return nil
}

func runRender(configPath, factsPath, outputPath, format string) error {
	cfg := loadConfig(configPath)

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	fs, err := facts.Load(factsPath)
	if err != nil {
		return err
	}

	g, err := analyzer.BuildGraph(context.Background(), fs)
	if err != nil {
		return err
	}

	desc := render.Describe(g, render.LayerAnnotations(g))

	var out string
	switch format {
	case "dot":
		out = render.ExportDOT(desc)
	case "mermaid":
		out = render.ExportMermaid(desc)
	default:
		return fmt.Errorf("unknown format %q (want dot or mermaid)", format)
	}

	if outputPath == "" {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(outputPath, []byte(out), 0o644)
}

func runExport(configPath, factsPath string) error {
	cfg := loadConfig(configPath)
	if cfg.Graph.URI == "" {
		return fmt.Errorf("graph store not configured (set graph.uri)")
	}

	ctx := context.Background()

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	fs, err := facts.Load(factsPath)
	if err != nil {
		return err
	}

	g, err := analyzer.BuildGraph(ctx, fs)
	if err != nil {
		return err
	}

	repo, err := openGraphStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	if err := repo.StoreGraph(ctx, g); err != nil {
		return err
	}
	fmt.Printf("Exported %d modules and %d edges to %s\n", g.ModuleCount(), g.EdgeCount(), cfg.Graph.URI)
	return nil
}

func runServe(configPath, addr string) error {
	cfg := loadConfig(configPath)
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "girder",
		Environment:  cfg.Tracing.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	audit, err := observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		OutputPath: cfg.Audit.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("init audit log: %w", err)
	}

	metrics := observability.NewMetrics()

	var policy *layers.Policy
	if len(cfg.Policy.Layers) > 0 {
		policy, err = layers.NewPolicy(cfg.Policy.Layers...)
		if err != nil {
			return fmt.Errorf("layer policy: %w", err)
		}
	}

	analyzer, err := analysis.New(analysis.Config{
		Policy: policy,
		Thresholds: coupling.Thresholds{
			Stable:   cfg.Coupling.StableBelow,
			Unstable: cfg.Coupling.UnstableAbove,
		},
		CacheSize: cfg.Cache.Size,
		Metrics:   metrics,
		Audit:     audit,
	})
	if err != nil {
		return err
	}

	var gates *gate.Pipeline
	if cfg.Gates.Enabled {
		gates = buildGates(cfg)
	}

	health := server.NewHealthServer(&server.HealthConfig{Version: "0.1.0"})

	var repo store.Repository
	if cfg.Graph.URI != "" {
		repo, err = openGraphStore(ctx, cfg)
		if err != nil {
			return err
		}
		health.RegisterCheck("graph-store", server.GraphStoreHealthChecker(repo.Ping))
	} else {
		health.RegisterCheck("graph-store", server.GraphStoreHealthChecker(nil))
	}

	api := server.NewAPIServer(&server.APIConfig{
		Analyzer: analyzer,
		Gates:    gates,
		Metrics:  metrics,
		Audit:    audit,
	})

	mux := http.NewServeMux()
	mux.Handle("/", health.Handler())
	api.Register(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdown := server.NewShutdownHandler(nil)
	shutdown.RegisterHook("http", 10, func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})
	shutdown.RegisterHook("audit", 20, func(ctx context.Context) error {
		return audit.Close()
	})
	shutdown.RegisterHook("tracing", 30, func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	})
	if repo != nil {
		shutdown.RegisterHook("graph-store", 40, repo.Close)
	}
	shutdown.Start()

	go func() {
		<-shutdown.ShutdownCh()
		health.SetReady(false)
	}()
	health.SetReady(true)

	fmt.Printf("Serving on %s\n", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	shutdown.Wait()
	return nil
}

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
