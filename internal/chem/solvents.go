package chem

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"elnimport/pkg/domain"
)

//go:embed solvents.yaml
var solventsYAML []byte

// Solvent is one entry of the reference solvent table.
type Solvent struct {
	Label         string `yaml:"label"`
	ExternalLabel string `yaml:"external_label"`
	Smiles        string `yaml:"smiles"`
}

// SolventTable resolves bare solvent names against reference entries.
type SolventTable struct {
	entries []Solvent
}

var (
	defaultTableOnce sync.Once
	defaultTable     *SolventTable
	defaultTableErr  error
)

// DefaultSolvents returns the embedded reference table.
func DefaultSolvents() (*SolventTable, error) {
	defaultTableOnce.Do(func() {
		defaultTable, defaultTableErr = ParseSolvents(solventsYAML)
	})
	return defaultTable, defaultTableErr
}

// ParseSolvents decodes a YAML list of solvents.
func ParseSolvents(data []byte) (*SolventTable, error) {
	var entries []Solvent
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode solvents: %w", err)
	}
	for i, e := range entries {
		if e.Label == "" || e.Smiles == "" {
			return nil, fmt.Errorf("solvent %d: label and smiles are required", i)
		}
	}
	return &SolventTable{entries: entries}, nil
}

// Len returns the number of reference entries.
func (t *SolventTable) Len() int { return len(t.entries) }

// Lookup returns the first entry whose label contains name.
func (t *SolventTable) Lookup(name string) (Solvent, bool) {
	if strings.TrimSpace(name) == "" {
		return Solvent{}, false
	}
	for _, e := range t.entries {
		if strings.Contains(e.Label, name) {
			return e, true
		}
	}
	return Solvent{}, false
}

// Mixture expands a bare solvent name into a single component mixture at 100%.
func (t *SolventTable) Mixture(name string) ([]domain.SolventEntry, bool) {
	s, ok := t.Lookup(name)
	if !ok {
		return nil, false
	}
	label := s.ExternalLabel
	if label == "" {
		label = s.Label
	}
	return []domain.SolventEntry{{Label: label, Smiles: s.Smiles, Ratio: "100"}}, true
}
