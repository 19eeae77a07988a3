package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanonone/hyperank/pkg/dataset"
	"github.com/sanonone/hyperank/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file (optional)")
	featPath := flag.String("features", "", "Path to the feature file (CSV or .fvecs)")
	labelPath := flag.String("labels", "", "Path to the label file (required for fvecs format)")
	format := flag.String("format", "csv", "Input format: csv or fvecs")

	query := flag.Int("query", 0, "Query item id to retrieve results for")
	evalLabel := flag.String("eval-label", "", "Evaluate every item of this label class instead of a single query")

	k := flag.Int("k", 0, "Hyperedge size (overrides config)")
	iterations := flag.Int("iterations", -1, "Number of refinement rounds (overrides config)")
	topK := flag.Int("top-k", 0, "Result list size (overrides config)")
	workers := flag.Int("workers", -1, "Worker goroutines per stage, 0 = NumCPU (overrides config)")
	selfSim := flag.String("self-similarity", "", "Zero-distance convention: epsilon or unit (overrides config)")
	precision := flag.String("precision", "", "Feature storage precision: float32 or float16 (overrides config)")

	limit := flag.Int("limit", 0, "Load at most this many items (0 = all)")
	shuffle := flag.Bool("shuffle", false, "Sample loaded items randomly instead of taking a prefix")
	seed := flag.Int64("seed", 0, "Seed for the dataset sampler")

	outPath := flag.String("out", "", "Write the retrieval report as JSON to this file")
	metricsAddr := flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9095)")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *featPath == "" {
		fmt.Fprintln(os.Stderr, "missing -features")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		fatal("failed to load config", err)
	}

	// Flag overrides win over the config file.
	if *k > 0 {
		cfg.HyperedgeSize = *k
	}
	if *iterations >= 0 {
		cfg.Iterations = *iterations
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *selfSim != "" {
		cfg.SelfSimilarity = *selfSim
	}
	if *precision != "" {
		cfg.Precision = *precision
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		slog.Info("metrics exposed", "addr", *metricsAddr)
	}

	loadOpts := dataset.LoadOptions{Limit: *limit, Shuffle: *shuffle, Seed: *seed}
	var ds *dataset.Dataset
	switch *format {
	case "csv":
		ds, err = dataset.LoadCSV(*featPath, loadOpts)
	case "fvecs":
		if *labelPath == "" {
			fatal("fvecs format requires -labels", nil)
		}
		ds, err = dataset.LoadFVecs(*featPath, *labelPath, loadOpts)
	default:
		fatal(fmt.Sprintf("unknown format %q", *format), nil)
	}
	if err != nil {
		fatal("failed to load dataset", err)
	}
	slog.Info("dataset loaded", "items", ds.Len(), "format", *format)

	eng, err := engine.Open(ds.Features, ds.Labels, cfg.Options())
	if err != nil {
		fatal("failed to open engine", err)
	}

	if err := eng.Refine(); err != nil {
		fatal("refinement failed", err)
	}

	var report engine.EvalReport
	if *evalLabel != "" {
		ids := dataset.NewLabelIndex(ds.Labels).IDs(*evalLabel)
		if len(ids) == 0 {
			fatal(fmt.Sprintf("no items with label %q", *evalLabel), nil)
		}
		report, err = eng.Evaluate(ids)
	} else {
		var qr engine.QueryReport
		qr, err = eng.Query(*query)
		report = engine.EvalReport{Queries: []engine.QueryReport{qr}, MeanAccuracy: qr.Accuracy}
	}
	if err != nil {
		fatal("retrieval failed", err)
	}

	printReport(eng, report)

	if *outPath != "" {
		if err := writeJSON(*outPath, report); err != nil {
			fatal("failed to write report", err)
		}
		slog.Info("report written", "path", *outPath)
	}
}

// printReport emits one line per retrieved item plus the accuracy summary.
func printReport(eng *engine.Engine, report engine.EvalReport) {
	for _, qr := range report.Queries {
		fmt.Printf("Query %d (label %s): %d results\n", qr.QueryID, qr.Label, len(qr.Results))
		for _, res := range qr.Results {
			fmt.Printf("Item index: %-5d | Label: %-12s | Score: %.6f\n", res.ID, eng.Label(res.ID), res.Score)
		}
		fmt.Printf("Accuracy: %.1f%%\n", qr.Accuracy)
	}
	if len(report.Queries) > 1 {
		fmt.Printf("Mean accuracy over %d queries: %.1f%%\n", len(report.Queries), report.MeanAccuracy)
	}
}

func writeJSON(path string, report engine.EvalReport) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func fatal(msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	} else {
		slog.Error(msg)
	}
	os.Exit(1)
}
