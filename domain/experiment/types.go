// Package experiment describes what the aggregation pipeline runs: an ordered
// list of models, each with an ordered list of model-parameter configurations.
package experiment

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"mcmcstats/domain/stats"
)

// Parameter is one named model parameter; a single value is a scalar
type Parameter struct {
	Name   string
	Values []float64
}

// IsScalar reports whether the parameter has exactly one value
func (p Parameter) IsScalar() bool { return len(p.Values) == 1 }

// ParameterSet is an ordered model-parameter configuration
type ParameterSet []Parameter

// Columns flattens the configuration into named columns: scalars keep their
// name, a vector of length k becomes name_1 ... name_k.
func (ps ParameterSet) Columns() ([]stats.Column, []stats.Cell) {
	var cols []stats.Column
	var cells []stats.Cell
	for _, p := range ps {
		if p.IsScalar() {
			cols = append(cols, stats.NumberColumn(p.Name))
			cells = append(cells, stats.Num(p.Values[0]))
			continue
		}
		for i, v := range p.Values {
			cols = append(cols, stats.NumberColumn(p.Name+"_"+strconv.Itoa(i+1)))
			cells = append(cells, stats.Num(v))
		}
	}
	return cols, cells
}

// Map returns the configuration keyed by name, for samplers
func (ps ParameterSet) Map() map[string][]float64 {
	out := make(map[string][]float64, len(ps))
	for _, p := range ps {
		out[p.Name] = append([]float64(nil), p.Values...)
	}
	return out
}

// Get returns the values of a named parameter
func (ps ParameterSet) Get(name string) ([]float64, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Values, true
		}
	}
	return nil, false
}

// UnmarshalYAML decodes a mapping of name -> number | [numbers], keeping key order
func (ps *ParameterSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", node.Line)
	}
	out := make(ParameterSet, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		p := Parameter{Name: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			var v float64
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("line %d: parameter %s: %w", val.Line, key.Value, err)
			}
			p.Values = []float64{v}
		case yaml.SequenceNode:
			if err := val.Decode(&p.Values); err != nil {
				return fmt.Errorf("line %d: parameter %s: %w", val.Line, key.Value, err)
			}
			if len(p.Values) == 0 {
				return fmt.Errorf("line %d: parameter %s has no values", val.Line, key.Value)
			}
		default:
			return fmt.Errorf("line %d: parameter %s must be a number or a list of numbers", val.Line, key.Value)
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

// MarshalYAML writes the configuration back as an ordered mapping
func (ps ParameterSet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range ps {
		var val yaml.Node
		var err error
		if p.IsScalar() {
			err = val.Encode(p.Values[0])
		} else {
			err = val.Encode(p.Values)
		}
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p.Name}, &val)
	}
	return node, nil
}

// Configuration is one entry of a model's parameter-set list
type Configuration struct {
	Parameters    ParameterSet         `yaml:"parameters"`
	InitialValues map[string][]float64 `yaml:"initial_values,omitempty"`
	GroundTruth   []stats.TruthEntry   `yaml:"ground_truth,omitempty"`
}

// Model is one sampler/model combination compared at the top level
type Model struct {
	Name           string             `yaml:"name"`
	Command        []string           `yaml:"command,omitempty"`
	Configurations []Configuration    `yaml:"parameter_sets"`
	GroundTruth    []stats.TruthEntry `yaml:"ground_truth,omitempty"`
}

// Truth returns the configuration's ground truth, falling back to the model's
func (m Model) Truth(i int) *stats.GroundTruth {
	entries := m.GroundTruth
	if i >= 0 && i < len(m.Configurations) && len(m.Configurations[i].GroundTruth) > 0 {
		entries = m.Configurations[i].GroundTruth
	}
	if len(entries) == 0 {
		return nil
	}
	return stats.NewGroundTruth(entries)
}

// PlotSpec asks for one line graph of the aggregated table
type PlotSpec struct {
	Name     string `yaml:"name"`
	X        string `yaml:"x"`
	Y        string `yaml:"y"`
	Colour   string `yaml:"colour,omitempty"`
	Linetype string `yaml:"linetype,omitempty"`
	LogX     bool   `yaml:"log_x,omitempty"`
	LogY     bool   `yaml:"log_y,omitempty"`
}

// Experiment is the top-level YAML document
type Experiment struct {
	Name     string     `yaml:"name"`
	BaseSeed int64      `yaml:"base_seed"`
	Reps     int        `yaml:"reps"`
	Models   []Model    `yaml:"models"`
	Plots    []PlotSpec `yaml:"plots,omitempty"`
}

// ModelNames lists the models in experiment order
func (e *Experiment) ModelNames() []string {
	names := make([]string, len(e.Models))
	for i, m := range e.Models {
		names[i] = m.Name
	}
	return names
}

// Parse decodes and validates an experiment document
func Parse(data []byte) (*Experiment, error) {
	var e Experiment
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse experiment: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks the experiment is runnable
func (e *Experiment) Validate() error {
	if len(e.Models) == 0 {
		return fmt.Errorf("experiment defines no models")
	}
	if e.Reps < 0 {
		return fmt.Errorf("reps must be positive, got %d", e.Reps)
	}
	seen := make(map[string]bool)
	for i, m := range e.Models {
		if m.Name == "" {
			return fmt.Errorf("model %d has no name", i+1)
		}
		if seen[m.Name] {
			return fmt.Errorf("model %q defined twice", m.Name)
		}
		seen[m.Name] = true
		if len(m.Configurations) == 0 {
			return fmt.Errorf("model %q has no parameter sets", m.Name)
		}
	}
	names := make(map[string]bool)
	for i, p := range e.Plots {
		if p.X == "" || p.Y == "" {
			return fmt.Errorf("plot %d needs both x and y", i+1)
		}
		if p.Name == "" {
			return fmt.Errorf("plot %d has no name", i+1)
		}
		if names[p.Name] {
			return fmt.Errorf("plot %q defined twice", p.Name)
		}
		names[p.Name] = true
	}
	return nil
}
