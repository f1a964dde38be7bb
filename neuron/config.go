package neuron

import (
	"fmt"

	"github.com/greyshaman/runen/common"
)

// InputCfg configures one input (synapse + dendrite weight) of a
// neuron.
type InputCfg struct {
	// CapacityMax is the upper limit of the synapse token bucket.
	CapacityMax common.Capacity `json:"capacity_max" yaml:"capacity_max" toml:"capacity_max"`

	// Regeneration is the amount of capacity recovered after each
	// accepted pulse. It must not exceed CapacityMax.
	Regeneration common.Capacity `json:"regeneration" yaml:"regeneration" toml:"regeneration"`

	// Weight is the signed dendrite weight.
	Weight common.Weight `json:"weight" yaml:"weight" toml:"weight"`
}

// NewInputCfg validates and returns an input configuration.
func NewInputCfg(capacityMax, regeneration common.Capacity, weight common.Weight) (InputCfg, error) {
	cfg := InputCfg{
		CapacityMax:  capacityMax,
		Regeneration: regeneration,
		Weight:       weight,
	}
	if err := cfg.Validate(); err != nil {
		return InputCfg{}, err
	}
	return cfg, nil
}

// Validate checks the construction-time constraints of the input.
func (c InputCfg) Validate() error {
	if c.CapacityMax < 1 {
		return fmt.Errorf("input capacity_max %d must be at least 1: %w",
			c.CapacityMax, common.ErrNotSupportedArgValue)
	}
	if c.Regeneration > c.CapacityMax {
		return fmt.Errorf("input regeneration %d exceeds capacity_max %d: %w",
			c.Regeneration, c.CapacityMax, common.ErrNotSupportedArgValue)
	}
	return nil
}

// DefaultInputCfg is the single input a neuron receives when created
// without explicit input configurations.
func DefaultInputCfg() InputCfg {
	return InputCfg{CapacityMax: 1, Regeneration: 1, Weight: 1}
}

// Config is the full construction-time configuration of a neuron.
type Config struct {
	ID     string        `json:"id" yaml:"id"`
	Bias   common.Weight `json:"bias" yaml:"bias"`
	Inputs []InputCfg    `json:"input_configs" yaml:"input_configs"`
}

// Validate checks every input configuration.
func (c Config) Validate() error {
	for i, in := range c.Inputs {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}
