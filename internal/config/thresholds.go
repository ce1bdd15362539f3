package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CredibilityThreshold controls whether a position or piece of evidence in a
// category is shown, counted, or strong enough to auto-amend a target.
// Ordering invariant: display ≤ inclusion ≤ auto-amend.
type CredibilityThreshold struct {
	DisplayThreshold   float64 `yaml:"display"`
	InclusionThreshold float64 `yaml:"inclusion"`
	AutoAmendThreshold float64 `yaml:"autoAmend"`
}

// ThresholdSet holds per-category thresholds with a fallback default.
type ThresholdSet struct {
	Default    CredibilityThreshold            `yaml:"default"`
	Categories map[string]CredibilityThreshold `yaml:"categories"`
}

// DefaultThresholds is used when no thresholds file is configured.
var DefaultThresholds = ThresholdSet{
	Default: CredibilityThreshold{
		DisplayThreshold:   0.30,
		InclusionThreshold: 0.50,
		AutoAmendThreshold: 0.85,
	},
}

// For returns the thresholds for a category, falling back to the default.
func (s ThresholdSet) For(category string) CredibilityThreshold {
	if t, ok := s.Categories[category]; ok {
		return t
	}
	return s.Default
}

// LoadThresholds reads the per-category thresholds YAML file and validates
// the level ordering for every entry.
func LoadThresholds(path string) (ThresholdSet, error) {
	if path == "" {
		return DefaultThresholds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ThresholdSet{}, fmt.Errorf("read thresholds file: %w", err)
	}

	var set ThresholdSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return ThresholdSet{}, fmt.Errorf("parse thresholds file: %w", err)
	}
	if set.Default == (CredibilityThreshold{}) {
		set.Default = DefaultThresholds.Default
	}

	if err := set.Default.validate("default"); err != nil {
		return ThresholdSet{}, err
	}
	for category, t := range set.Categories {
		if err := t.validate(category); err != nil {
			return ThresholdSet{}, err
		}
	}
	return set, nil
}

func (t CredibilityThreshold) validate(name string) error {
	if t.DisplayThreshold < 0 || t.AutoAmendThreshold > 1 {
		return fmt.Errorf("thresholds %q: values must be in [0,1]", name)
	}
	if t.DisplayThreshold > t.InclusionThreshold || t.InclusionThreshold > t.AutoAmendThreshold {
		return fmt.Errorf("thresholds %q: require display ≤ inclusion ≤ autoAmend", name)
	}
	return nil
}
