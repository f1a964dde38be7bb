// Package ident implements the structured identifier scheme shared by
// every runen component. An identifier is a chain of segments joined by
// "::", each segment being a kind prefix, an underscore and a numeric
// index, e.g. "N_0::HL_0::Z_3" for the fourth neuron of the first
// hidden layer of the first network. The compact legacy form "M0Z3" is
// still accepted for neurons at the API boundary.
package ident

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/greyshaman/runen/common"
)

// Kind enumerates the component kinds that own identifiers.
type Kind int

const (
	// Network is the top level container ("N").
	Network Kind = iota
	// HiddenLayer groups neurons inside a network ("HL").
	HiddenLayer
	// Neuron is the container of synapses, dendrites, a neurosoma and
	// an axon ("Z").
	Neuron
	// Synapse is a per-input acceptor ("A").
	Synapse
	// Dendrite is the weighting stage of one input ("C").
	Dendrite
	// Neurosoma is the accumulator of a neuron ("G"). A neuron owns at
	// most one.
	Neurosoma
	// Axon is the broadcast outlet of a neuron ("E"). A neuron owns at
	// most one.
	Axon
	// InputPort is a network level entry point ("I").
	InputPort
	// OutputPort is a network level exit point ("O").
	OutputPort
)

// String returns the segment prefix of the kind.
func (k Kind) String() string {
	switch k {
	case Network:
		return "N"
	case HiddenLayer:
		return "HL"
	case Neuron:
		return "Z"
	case Synapse:
		return "A"
	case Dendrite:
		return "C"
	case Neurosoma:
		return "G"
	case Axon:
		return "E"
	case InputPort:
		return "I"
	case OutputPort:
		return "O"
	default:
		return "?"
	}
}

// SiblingsAllowed reports whether a container may hold more than one
// component of this kind. A neuron carries exactly one neurosoma and
// one axon; everything else may have siblings.
func (k Kind) SiblingsAllowed() bool {
	switch k {
	case Neurosoma, Axon:
		return false
	default:
		return true
	}
}

const (
	networkPattern = `^N_\d+$`
	layerPattern   = `^N_\d+::HL_\d+$`
	neuronPattern  = `^N_\d+::HL_\d+::Z_\d+$`
	// legacyNeuronPattern is the compact historical form still accepted
	// at deserialization boundaries.
	legacyNeuronPattern = `^M\d+Z\d+$`
)

var (
	rexNetwork      = regexp.MustCompile(networkPattern)
	rexLayer        = regexp.MustCompile(layerPattern)
	rexNeuron       = regexp.MustCompile(neuronPattern)
	rexLegacyNeuron = regexp.MustCompile(legacyNeuronPattern)

	rexEmpty = regexp.MustCompile(`^$`)
)

// containerRex returns the pattern a container id must match before a
// component of kind k may be created inside it.
func containerRex(k Kind) *regexp.Regexp {
	switch k {
	case Network:
		return rexEmpty
	case HiddenLayer:
		return rexNetwork
	case Neuron:
		return rexLayer
	case Synapse, Dendrite, Neurosoma, Axon:
		return rexNeuron
	case InputPort, OutputPort:
		return rexNetwork
	default:
		return rexEmpty
	}
}

var selfPatterns = map[Kind]*regexp.Regexp{
	Network:     rexNetwork,
	HiddenLayer: rexLayer,
	Neuron:      rexNeuron,
	Synapse:     regexp.MustCompile(`^N_\d+::HL_\d+::Z_\d+::A_\d+$`),
	Dendrite:    regexp.MustCompile(`^N_\d+::HL_\d+::Z_\d+::C_\d+$`),
	Neurosoma:   regexp.MustCompile(`^N_\d+::HL_\d+::Z_\d+::G_\d+$`),
	Axon:        regexp.MustCompile(`^N_\d+::HL_\d+::Z_\d+::E_\d+$`),
	InputPort:   regexp.MustCompile(`^N_\d+::I_\d+$`),
	OutputPort:  regexp.MustCompile(`^N_\d+::O_\d+$`),
}

// selfRex returns the pattern a full id of kind k must match.
func selfRex(k Kind) *regexp.Regexp {
	if rex, ok := selfPatterns[k]; ok {
		return rex
	}
	return rexEmpty
}

// Compose builds the id of the component with the given numeric index
// inside containerID. The container id is validated against the kind's
// expected container pattern.
func Compose(containerID string, index int, k Kind) (string, error) {
	if !containerRex(k).MatchString(containerID) {
		return "", fmt.Errorf("composing %s id inside %q: %w", k, containerID, common.ErrNotSupportedArgValue)
	}
	if containerID == "" {
		return fmt.Sprintf("%s_%d", k, index), nil
	}
	return fmt.Sprintf("%s::%s_%d", containerID, k, index), nil
}

// IsValid reports whether id is a well-formed identifier of kind k.
// Neurons additionally accept the legacy compact form.
func IsValid(id string, k Kind) bool {
	if k == Neuron && rexLegacyNeuron.MatchString(id) {
		return true
	}
	return selfRex(k).MatchString(id)
}

// Index extracts the numeric index of the final segment of an id of
// kind k. For legacy neuron ids the trailing number is used.
func Index(id string, k Kind) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("extracting %s index: %w", k, common.ErrExpectedDataNotPresent)
	}
	if k == Neuron && rexLegacyNeuron.MatchString(id) {
		m := regexp.MustCompile(`^M\d+Z(\d+)$`).FindStringSubmatch(id)
		return strconv.Atoi(m[1])
	}
	rex := regexp.MustCompile(fmt.Sprintf(`(?:^|::)%s_(\d+)$`, k.String()))
	m := rex.FindStringSubmatch(id)
	if m == nil {
		return 0, fmt.Errorf("extracting %s index from %q: %w", k, id, common.ErrPatternNotFound)
	}
	return strconv.Atoi(m[1])
}

// CheckSiblings reports whether the id is admissible under the kind's
// sibling-uniqueness rule: kinds that allow no siblings must carry
// index zero.
func CheckSiblings(id string, k Kind) bool {
	if k.SiblingsAllowed() {
		return true
	}
	idx, err := Index(id, k)
	return err == nil && idx == 0
}
