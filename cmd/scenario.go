package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/basin-sim/basin-sim/engine"
	"github.com/basin-sim/basin-sim/engine/models"
)

// ScenarioSpec is the YAML description of one simulation run: the node
// network, its forcing, what gets recorded where, and the window to
// simulate.
type ScenarioSpec struct {
	Name      string     `yaml:"name"`
	Window    WindowSpec `yaml:"window"`
	Workers   int        `yaml:"workers"`
	Policy    string     `yaml:"policy"`
	OutputDir string     `yaml:"output_dir"`
	Nodes     []NodeSpec `yaml:"nodes"`
	Links     []LinkSpec `yaml:"links"`
	Report    ReportSpec `yaml:"report"`
}

// WindowSpec is the simulated index range [Start, Start+Steps).
type WindowSpec struct {
	Start int `yaml:"start"`
	Steps int `yaml:"steps"`
}

// NodeSpec declares one node. Exactly one of the kind-specific parameter
// blocks must be present, matching Kind.
type NodeSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	Reservoir *models.ReservoirConfig `yaml:"reservoir"`
	Runoff    *models.RunoffConfig    `yaml:"runoff"`
	Channel   *models.ChannelConfig   `yaml:"channel"`

	Forcing map[string]ForcingSpec `yaml:"forcing"`
	Record  map[string]string      `yaml:"record"` // variable -> memory | disk | unrecorded
}

// ForcingSpec names one input series source: inline values, a fixed-record
// binary file, or a deterministic synthetic signal.
type ForcingSpec struct {
	Values    []float64      `yaml:"values"`
	Path      string         `yaml:"path"`
	Synthetic *SyntheticSpec `yaml:"synthetic"`
}

// SyntheticSpec parameterizes a generated forcing signal: a seasonal sine
// with seeded noise, clipped at zero.
type SyntheticSpec struct {
	Seed      int64   `yaml:"seed"`
	Mean      float64 `yaml:"mean"`
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Noise     float64 `yaml:"noise"`
}

// LinkSpec wires "node.outlet" to "node.inlet".
type LinkSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ReportSpec selects what the run prints and exports afterwards.
type ReportSpec struct {
	Summary []string `yaml:"summary"` // series keys to summarize
	CSV     string   `yaml:"csv"`     // series key to export as CSV
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*ScenarioSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var spec ScenarioSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &spec, nil
}

func (s *ScenarioSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Window.Steps <= 0 {
		return fmt.Errorf("window.steps must be positive, got %d", s.Window.Steps)
	}
	if s.Window.Start < 0 {
		return fmt.Errorf("window.start must not be negative, got %d", s.Window.Start)
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}
	for _, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("every node needs a name")
		}
		if strings.Contains(n.Name, ".") {
			return fmt.Errorf("node name %q must not contain a dot", n.Name)
		}
	}
	return nil
}

// builtScenario carries everything the run command needs after assembly.
type builtScenario struct {
	graph     *engine.Graph
	window    WindowSpec
	diskPaths map[string]string // series key -> backing file
}

// buildScenario assembles the graph: forcing series first, then nodes,
// record series, and links. Memory series are sized to cover the whole
// window; disk outputs land under the scenario's output directory.
func buildScenario(spec *ScenarioSpec) (*builtScenario, error) {
	g := engine.NewGraph()
	built := &builtScenario{graph: g, window: spec.Window, diskPaths: make(map[string]string)}
	horizon := spec.Window.Start + spec.Window.Steps

	outputDir := spec.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	for _, ns := range spec.Nodes {
		forcing, err := buildForcing(g, ns, horizon)
		if err != nil {
			return nil, err
		}
		node, err := buildNode(g, ns, forcing)
		if err != nil {
			return nil, err
		}
		if err := buildRecords(g, built, node, ns, outputDir, horizon); err != nil {
			return nil, err
		}
	}

	for _, link := range spec.Links {
		fromNode, fromPort, err := splitPort(link.From)
		if err != nil {
			return nil, fmt.Errorf("link from %q: %w", link.From, err)
		}
		toNode, toPort, err := splitPort(link.To)
		if err != nil {
			return nil, fmt.Errorf("link to %q: %w", link.To, err)
		}
		if err := g.Connect(fromNode, fromPort, toNode, toPort); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// buildForcing configures one input series per declared forcing variable
// and returns them keyed by variable name.
func buildForcing(g *engine.Graph, ns NodeSpec, horizon int) (map[string]engine.Series, error) {
	forcing := make(map[string]engine.Series, len(ns.Forcing))
	for variable, fs := range ns.Forcing {
		key := ns.Name + "." + variable
		var (
			s   engine.Series
			err error
		)
		switch {
		case fs.Path != "":
			s, err = g.ConfigureSeries(key, engine.SeriesSpec{
				Mode:  engine.ModeDisk,
				Path:  fs.Path,
				Input: true,
			})
		case len(fs.Values) > 0:
			if len(fs.Values) < horizon {
				return nil, fmt.Errorf("forcing %s: %d values cover less than the window horizon %d", key, len(fs.Values), horizon)
			}
			s, err = g.ConfigureSeries(key, engine.SeriesSpec{Mode: engine.ModeMemory, Length: horizon})
			if err == nil {
				for t, v := range fs.Values[:horizon] {
					if err = engine.WriteScalar(s, t, v); err != nil {
						break
					}
				}
			}
		case fs.Synthetic != nil:
			s, err = g.ConfigureSeries(key, engine.SeriesSpec{Mode: engine.ModeMemory, Length: horizon})
			if err == nil {
				err = syntheticForcing(s, key, *fs.Synthetic, horizon)
			}
		default:
			return nil, fmt.Errorf("forcing %s: one of values, path, or synthetic is required", key)
		}
		if err != nil {
			return nil, err
		}
		forcing[variable] = s
	}
	return forcing, nil
}

// buildNode constructs one node from its kind-specific parameter block.
func buildNode(g *engine.Graph, ns NodeSpec, forcing map[string]engine.Series) (engine.Node, error) {
	switch ns.Kind {
	case string(models.KindReservoir):
		if ns.Reservoir == nil {
			return nil, fmt.Errorf("node %q: kind reservoir requires a reservoir block", ns.Name)
		}
		return models.NewReservoir(g, ns.Name, *ns.Reservoir)
	case string(models.KindRunoff):
		if ns.Runoff == nil {
			return nil, fmt.Errorf("node %q: kind runoff requires a runoff block", ns.Name)
		}
		return models.NewRunoff(g, ns.Name, *ns.Runoff, forcing["precip"], forcing["pet"])
	case string(models.KindChannel):
		if ns.Channel == nil {
			return nil, fmt.Errorf("node %q: kind channel requires a channel block", ns.Name)
		}
		return models.NewChannel(g, ns.Name, *ns.Channel)
	default:
		return nil, fmt.Errorf("node %q: unknown kind %q", ns.Name, ns.Kind)
	}
}

// buildRecords configures the output series a node's SaveData writes into.
func buildRecords(g *engine.Graph, built *builtScenario, node engine.Node, ns NodeSpec, outputDir string, horizon int) error {
	for variable, mode := range ns.Record {
		key := ns.Name + "." + variable
		var spec engine.SeriesSpec
		switch engine.SeriesMode(mode) {
		case engine.ModeMemory:
			spec = engine.SeriesSpec{Mode: engine.ModeMemory, Length: horizon}
		case engine.ModeDisk:
			path := filepath.Join(outputDir, ns.Name+"."+variable+".bin")
			spec = engine.SeriesSpec{Mode: engine.ModeDisk, Path: path}
			built.diskPaths[key] = path
		case engine.ModeUnrecorded:
			spec = engine.SeriesSpec{Mode: engine.ModeUnrecorded}
		default:
			return fmt.Errorf("record %s: unknown mode %q", key, mode)
		}
		s, err := g.ConfigureSeries(key, spec)
		if err != nil {
			return err
		}
		if err := node.SetSeries(variable, s); err != nil {
			return err
		}
	}
	return nil
}

// splitPort parses "node.port" references used by links.
func splitPort(ref string) (node, port string, err error) {
	node, port, ok := strings.Cut(ref, ".")
	if !ok || node == "" || port == "" {
		return "", "", fmt.Errorf("expected node.port, got %q", ref)
	}
	return node, port, nil
}
