package experiment

import (
	"fmt"
	"os"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"
	"anchortest/internal/testkit"

	"gopkg.in/yaml.v3"
)

// Plan describes an experiment grid. Every unordered pair of distributions,
// with replacement, is run at every sample size and dimension.
type Plan struct {
	Name          string   `yaml:"name" json:"name"`
	SampleSizes   []int    `yaml:"sample_sizes" json:"sample_sizes"`
	Dimensions    []int    `yaml:"dimensions" json:"dimensions"`
	Distributions []string `yaml:"distributions" json:"distributions"`
	Replicates    int      `yaml:"replicates" json:"replicates"`
	// Shift moves Y off X's law for every pairing. Zero reproduces the
	// plain distribution grid.
	Shift float64 `yaml:"shift,omitempty" json:"shift,omitempty"`
}

// DefaultPlan is the grid used when no plan file is given
func DefaultPlan() Plan {
	return Plan{
		Name:          "anchor-proportions",
		SampleSizes:   []int{10, 50, 100, 200, 300, 500},
		Dimensions:    []int{20},
		Distributions: testkit.Distributions(),
		Replicates:    500,
	}
}

// LoadPlan reads a YAML plan from path
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errors.Wrapf(err, "read plan %s", path)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan. Fields left out keep their
// DefaultPlan values.
func ParsePlan(data []byte) (Plan, error) {
	plan := DefaultPlan()
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, errors.ConfigInvalid(fmt.Sprintf("parse plan: %v", err))
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Validate checks that every configuration of the plan can run
func (p Plan) Validate() error {
	if len(p.SampleSizes) == 0 || len(p.Dimensions) == 0 || len(p.Distributions) == 0 {
		return errors.ConfigInvalid("plan needs at least one sample size, dimension and distribution")
	}
	if p.Replicates < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("plan replicates must be positive, got %d", p.Replicates))
	}
	for _, size := range p.SampleSizes {
		for _, sc := range Scenarios(size, size) {
			if sc.Z/2 < 1 {
				return errors.ConfigInvalid(fmt.Sprintf(
					"sample size %d leaves scenario %s without anchors from both groups", size, sc.Name))
			}
		}
	}
	for _, d := range p.Dimensions {
		if d < 1 {
			return errors.ConfigInvalid(fmt.Sprintf("plan dimension must be positive, got %d", d))
		}
	}
	for _, dist := range p.Distributions {
		if !testkit.IsDistribution(dist) {
			return errors.ConfigInvalid(fmt.Sprintf("plan names unknown distribution %q", dist))
		}
	}
	return nil
}

// Hash identifies the grid. The plan name is not part of it.
func (p Plan) Hash() core.Hash {
	p.Name = ""
	data, err := yaml.Marshal(p)
	if err != nil {
		// A Plan holds only ints, floats and strings.
		panic(err)
	}
	return core.NewHash(data)
}

// Configurations expands the grid in plan order: sample size, then
// distribution pair, then dimension.
func (p Plan) Configurations() []experiment.Configuration {
	var out []experiment.Configuration
	for _, size := range p.SampleSizes {
		for i := range p.Distributions {
			for j := i; j < len(p.Distributions); j++ {
				for _, d := range p.Dimensions {
					out = append(out, experiment.Configuration{
						DistX:      p.Distributions[i],
						DistY:      p.Distributions[j],
						InitialX:   size,
						InitialY:   size,
						Dimension:  d,
						Replicates: p.Replicates,
						Shift:      p.Shift,
					})
				}
			}
		}
	}
	return out
}
