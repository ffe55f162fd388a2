// Package cost computes USD cost for reasoning-service calls from token
// counts and a per-model pricing table.
package cost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pricing holds per-million-token prices for one model.
type Pricing struct {
	InputPerMTok  float64 `yaml:"input"`
	OutputPerMTok float64 `yaml:"output"`
}

// Table maps model ids to pricing. Unknown models fall back to the
// fallback entry so a new model never bills at zero.
type Table struct {
	Models   map[string]Pricing `yaml:"models"`
	Fallback Pricing            `yaml:"fallback"`
}

// DefaultTable returns the built-in pricing table.
func DefaultTable() Table {
	return Table{
		Models: map[string]Pricing{
			"claude-haiku-4-5-20251001":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
			"claude-sonnet-4-5-20250929": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
		},
		Fallback: Pricing{InputPerMTok: 3.00, OutputPerMTok: 15.00},
	}
}

// LoadTable reads a pricing table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse pricing table: %w", err)
	}
	if t.Fallback == (Pricing{}) {
		t.Fallback = DefaultTable().Fallback
	}
	return t, nil
}

// Cost returns the USD cost of a single call.
func (t Table) Cost(model string, inputTokens, outputTokens int64) float64 {
	p, ok := t.Models[model]
	if !ok {
		p = t.Fallback
	}
	in := float64(inputTokens) / 1_000_000 * p.InputPerMTok
	out := float64(outputTokens) / 1_000_000 * p.OutputPerMTok
	return in + out
}
