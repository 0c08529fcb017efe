package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/basin-sim/basin-sim/engine"
	"github.com/basin-sim/basin-sim/internal/observability"
)

var (
	scenarioPath string  // Scenario YAML describing the node network and window
	logLevel     string  // Log verbosity level
	workers      int     // Worker goroutines per layer; 0 keeps the scenario's value
	policy       string  // Intra-layer distribution policy; empty keeps the scenario's value
	outputDir    string  // Directory for disk series and CSV exports; overrides the scenario
	metricsAddr  string  // Serve Prometheus metrics on this address while running
	traceRun     bool    // Emit OpenTelemetry spans for the run
	sampleRatio  float64 // Trace sampling ratio
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "basin-sim",
	Short: "Deterministic time-stepped simulator for process-model networks",
}

// runCmd executes one scenario from start to finish
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("Scenario file not provided. Exiting.")
		}
		spec, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("unable to load scenario: %v", err)
		}
		applyOverrides(spec)

		ctx := context.Background()
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			Enabled:     traceRun,
			ServiceName: "basin-sim",
			SampleRatio: sampleRatio,
		})
		if err != nil {
			logrus.Fatalf("unable to initialise tracing: %v", err)
		}
		defer observability.ShutdownWithTimeout(ctx, shutdown)

		collector, err := observability.NewEngineCollector(nil)
		if err != nil {
			logrus.Fatalf("unable to register metrics: %v", err)
		}
		if metricsAddr != "" {
			go func() {
				logrus.Infof("serving metrics on %s/metrics", metricsAddr)
				if serveErr := http.ListenAndServe(metricsAddr, collector.Handler()); serveErr != nil {
					logrus.Warnf("metrics server stopped: %v", serveErr)
				}
			}()
		}

		built, err := buildScenario(spec)
		if err != nil {
			logrus.Fatalf("unable to build scenario %q: %v", spec.Name, err)
		}
		sched, err := engine.NewScheduler(built.graph, engine.Config{
			Workers: spec.Workers,
			Policy:  engine.Policy(spec.Policy),
		})
		if err != nil {
			logrus.Fatalf("unable to schedule scenario %q: %v", spec.Name, err)
		}
		sched.SetObserver(collector)

		t0 := spec.Window.Start
		t1 := t0 + spec.Window.Steps
		logrus.Infof("Starting scenario %q: %d nodes, window [%d,%d)",
			spec.Name, built.graph.NumNodes(), t0, t1)

		startTime := time.Now()
		_, span := otel.Tracer("basin-sim/run").Start(ctx, "simulate",
			trace.WithAttributes(
				attribute.String("scenario", spec.Name),
				attribute.Int("steps", spec.Window.Steps),
			))
		err = sched.Simulate(t0, t1)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if err != nil {
			sched.Close()
			logrus.Fatalf("simulation failed: %v", err)
		}
		if err := sched.Close(); err != nil {
			logrus.Fatalf("unable to release series: %v", err)
		}

		sched.Stats().Print()
		if err := printReport(built, spec); err != nil {
			logrus.Fatalf("unable to report: %v", err)
		}
		logrus.Infof("Scenario complete in %s.", time.Since(startTime))
	},
}

// checkCmd validates a scenario end to end without simulating it
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a scenario without running it",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("Scenario file not provided. Exiting.")
		}
		spec, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("scenario does not load: %v", err)
		}
		applyOverrides(spec)
		built, err := buildScenario(spec)
		if err != nil {
			logrus.Fatalf("scenario does not build: %v", err)
		}
		sched, err := engine.NewScheduler(built.graph, engine.Config{
			Workers: spec.Workers,
			Policy:  engine.Policy(spec.Policy),
		})
		if err != nil {
			logrus.Fatalf("scenario does not schedule: %v", err)
		}
		defer sched.Close()
		logrus.Infof("scenario %q ok: %d nodes in %d layers, %d series",
			spec.Name, built.graph.NumNodes(), len(sched.Layers()), len(built.graph.SeriesKeys()))
	},
}

// applyOverrides folds CLI flags over the scenario's own settings.
func applyOverrides(spec *ScenarioSpec) {
	if workers > 0 {
		spec.Workers = workers
	}
	if policy != "" {
		spec.Policy = policy
	}
	if outputDir != "" {
		spec.OutputDir = outputDir
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines per layer (0 keeps the scenario's value)")
	runCmd.Flags().StringVar(&policy, "policy", "", "Intra-layer distribution policy: static or dynamic")
	runCmd.Flags().StringVar(&outputDir, "out", "", "Output directory for disk series and CSV exports")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&traceRun, "trace", false, "Emit OpenTelemetry spans to stdout")
	runCmd.Flags().Float64Var(&sampleRatio, "trace-sample-ratio", 1.0, "Trace sampling ratio in [0,1]")

	checkCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	checkCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}
