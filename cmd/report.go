package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/basin-sim/basin-sim/engine"
	"github.com/basin-sim/basin-sim/engine/recordio"
)

// printReport summarizes the recorded series named by the scenario's report
// block and exports one series as CSV when asked. It runs after the scheduler
// is closed, so disk series are read back from their files.
func printReport(built *builtScenario, spec *ScenarioSpec) error {
	t0 := spec.Window.Start
	t1 := t0 + spec.Window.Steps

	if len(spec.Report.Summary) > 0 {
		fmt.Printf("=== Series Summary [%d,%d) ===\n", t0, t1)
		for _, key := range spec.Report.Summary {
			vals, err := seriesValues(built, key, t0, t1)
			if err != nil {
				return err
			}
			printSummary(key, vals)
		}
	}

	if spec.Report.CSV != "" {
		outputDir := spec.OutputDir
		if outputDir == "" {
			outputDir = "."
		}
		path := filepath.Join(outputDir, spec.Report.CSV+".csv")
		if err := exportCSV(built, spec.Report.CSV, t0, t1, path); err != nil {
			return err
		}
		logrus.Infof("exported series %q to %s", spec.Report.CSV, path)
	}
	return nil
}

// seriesValues reads one scalar series back over [t0,t1). Memory series stay
// readable after the window closes; disk series are reopened via their files.
func seriesValues(built *builtScenario, key string, t0, t1 int) ([]float64, error) {
	s, ok := built.graph.Series(key)
	if !ok {
		return nil, fmt.Errorf("report: unknown series %q", key)
	}
	switch s.Mode() {
	case engine.ModeMemory:
		vals := make([]float64, 0, t1-t0)
		for t := t0; t < t1; t++ {
			v, err := engine.ReadScalar(s, t)
			if err != nil {
				return nil, fmt.Errorf("report: read %q at %d: %w", key, t, err)
			}
			vals = append(vals, v)
		}
		return vals, nil
	case engine.ModeDisk:
		records, err := recordio.ReadAll(built.diskPaths[key], s.Width())
		if err != nil {
			return nil, fmt.Errorf("report: read %q: %w", key, err)
		}
		if len(records) < t1 {
			return nil, fmt.Errorf("report: series %q holds %d records, window ends at %d", key, len(records), t1)
		}
		vals := make([]float64, 0, t1-t0)
		for _, rec := range records[t0:t1] {
			vals = append(vals, rec[0])
		}
		return vals, nil
	default:
		return nil, fmt.Errorf("report: series %q is not recorded", key)
	}
}

// printSummary prints one row of order statistics for a series.
func printSummary(key string, vals []float64) {
	if len(vals) == 0 {
		fmt.Printf("%-24s (empty)\n", key)
		return
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mean := stat.Mean(vals, nil)
	p50 := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 := stat.Quantile(0.9, stat.Empirical, sorted, nil)
	fmt.Printf("%-24s n=%-6d mean=%-12.6g p50=%-12.6g p90=%-12.6g max=%.6g\n",
		key, len(vals), mean, p50, p90, sorted[len(sorted)-1])
}

// exportCSV writes one series over [t0,t1) as a two-column CSV.
func exportCSV(built *builtScenario, key string, t0, t1 int, path string) error {
	vals, err := seriesValues(built, key, t0, t1)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Warnf("Error closing file %s: %v", path, closeErr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"t", "value"}); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	for i, v := range vals {
		row := []string{strconv.Itoa(t0 + i), strconv.FormatFloat(v, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("report: write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
