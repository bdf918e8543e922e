package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"prunekit/internal/prune"
	"prunekit/pkg/prunekit"
)

// Plan is a YAML pruning plan: an ordered list of steps applied in
// sequence, each either a local prune of one parameter or a global prune
// over several.
type Plan struct {
	Steps []PlanStep `yaml:"steps"`
}

type PlanStep struct {
	Parameter  string   `yaml:"parameter,omitempty"`
	Parameters []string `yaml:"parameters,omitempty"`
	Method     string   `yaml:"method"`
	Amount     float64  `yaml:"amount"`
	Absolute   bool     `yaml:"absolute,omitempty"`
	Axis       int      `yaml:"axis,omitempty"`
	Norm       float64  `yaml:"norm,omitempty"`
	Seed       int64    `yaml:"seed,omitempty"`
}

func (s PlanStep) global() bool {
	return s.Method == prune.GlobalMethodName
}

func (p *Plan) defaults() {
	for i := range p.Steps {
		if p.Steps[i].Method == "" {
			p.Steps[i].Method = "l1_unstructured"
		}
	}
}

func (p *Plan) validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, step := range p.Steps {
		if step.global() {
			if step.Parameter != "" {
				return fmt.Errorf("step %d: global steps take parameters, not parameter", i+1)
			}
			continue
		}
		if step.Parameter == "" {
			return fmt.Errorf("step %d: parameter is required", i+1)
		}
		if len(step.Parameters) > 0 {
			return fmt.Errorf("step %d: parameters is only valid for %s", i+1, prune.GlobalMethodName)
		}
	}
	return nil
}

func loadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plan := &Plan{}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	plan.defaults()
	if err := plan.validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return plan, nil
}

type parameterFile struct {
	Name   string    `json:"name"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

func loadParameterFile(path string) ([]prunekit.ParameterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []parameterFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse parameters %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no parameters in %s", path)
	}
	specs := make([]prunekit.ParameterSpec, 0, len(raw))
	for _, entry := range raw {
		specs = append(specs, prunekit.ParameterSpec{
			Name:   entry.Name,
			Shape:  entry.Shape,
			Values: entry.Values,
		})
	}
	return specs, nil
}
