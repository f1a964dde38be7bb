package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/ident"
	"github.com/greyshaman/runen/network"
	"github.com/greyshaman/runen/neuron"
)

// Link kinds of a topology document.
const (
	// LinkInput routes an external input port to a neuron synapse.
	LinkInput = "input"
	// LinkInner connects one neuron's axon to another neuron's synapse.
	LinkInner = "inner"
	// LinkOutput exposes a neuron's axon on an external output port.
	LinkOutput = "output"
)

// LinkCfg describes one edge of the topology. Kind selects which of
// the optional fields apply.
type LinkCfg struct {
	Kind string `json:"kind" yaml:"kind"`

	InputPort     *int   `json:"input_port,omitempty" yaml:"input_port,omitempty"`
	SrcID         string `json:"src_id,omitempty" yaml:"src_id,omitempty"`
	DstID         string `json:"dst_id,omitempty" yaml:"dst_id,omitempty"`
	DstSynapseIdx *int   `json:"dst_synapse_idx,omitempty" yaml:"dst_synapse_idx,omitempty"`
	OutputPort    *int   `json:"output_port,omitempty" yaml:"output_port,omitempty"`
}

// Document is the serializable description of a network: the port
// counts, the neuron set and the links between them. A document
// serializes identically through JSON and YAML round-trips.
type Document struct {
	Inputs  int             `json:"inputs" yaml:"inputs"`
	Outputs int             `json:"outputs" yaml:"outputs"`
	Neurons []neuron.Config `json:"neurons" yaml:"neurons"`
	Links   []LinkCfg       `json:"links" yaml:"links"`
}

// Validate checks identifier shapes, uniqueness and link references.
func (d *Document) Validate() error {
	if d.Inputs < 0 || d.Outputs < 0 {
		return fmt.Errorf("port counts must be non-negative: %w", common.ErrNotSupportedArgValue)
	}

	inputsByID := make(map[string]int, len(d.Neurons))
	for i, nc := range d.Neurons {
		if !ident.IsValid(nc.ID, ident.Neuron) {
			return fmt.Errorf("neuron %d id %q: %w", i, nc.ID, common.ErrPatternNotFound)
		}
		if _, dup := inputsByID[nc.ID]; dup {
			return fmt.Errorf("neuron id %q: %w", nc.ID, common.ErrOccupiedKey)
		}
		if err := nc.Validate(); err != nil {
			return fmt.Errorf("neuron %q: %w", nc.ID, err)
		}
		count := len(nc.Inputs)
		if count == 0 {
			count = 1
		}
		inputsByID[nc.ID] = count
	}

	for i, link := range d.Links {
		switch link.Kind {
		case LinkInput:
			if link.InputPort == nil || link.DstID == "" || link.DstSynapseIdx == nil {
				return fmt.Errorf("link %d: %w", i, common.ErrExpectedDataNotPresent)
			}
			if *link.InputPort < 0 || *link.InputPort >= d.Inputs {
				return fmt.Errorf("link %d: input port %d out of range: %w", i, *link.InputPort, common.ErrNotSupportedArgValue)
			}
			if err := checkSynapseRef(inputsByID, link.DstID, *link.DstSynapseIdx, i); err != nil {
				return err
			}
		case LinkInner:
			if link.SrcID == "" || link.DstID == "" || link.DstSynapseIdx == nil {
				return fmt.Errorf("link %d: %w", i, common.ErrExpectedDataNotPresent)
			}
			if _, ok := inputsByID[link.SrcID]; !ok {
				return fmt.Errorf("link %d: %w", i, &common.NeuronNotFoundError{ID: link.SrcID})
			}
			if err := checkSynapseRef(inputsByID, link.DstID, *link.DstSynapseIdx, i); err != nil {
				return err
			}
		case LinkOutput:
			if link.SrcID == "" || link.OutputPort == nil {
				return fmt.Errorf("link %d: %w", i, common.ErrExpectedDataNotPresent)
			}
			if _, ok := inputsByID[link.SrcID]; !ok {
				return fmt.Errorf("link %d: %w", i, &common.NeuronNotFoundError{ID: link.SrcID})
			}
			if *link.OutputPort < 0 || *link.OutputPort >= d.Outputs {
				return fmt.Errorf("link %d: output port %d out of range: %w", i, *link.OutputPort, common.ErrNotSupportedArgValue)
			}
		default:
			return fmt.Errorf("link %d kind %q: %w", i, link.Kind, common.ErrIncorrectPortType)
		}
	}
	return nil
}

func checkSynapseRef(inputsByID map[string]int, dstID string, idx, linkNo int) error {
	count, ok := inputsByID[dstID]
	if !ok {
		return fmt.Errorf("link %d: %w", linkNo, &common.NeuronNotFoundError{ID: dstID})
	}
	if idx < 0 || idx >= count {
		return fmt.Errorf("link %d: synapse index %d out of range for %q: %w",
			linkNo, idx, dstID, common.ErrNotSupportedArgValue)
	}
	return nil
}

// EncodeJSON renders the canonical JSON form of the document.
func (d *Document) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding topology json: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeYAML renders the canonical YAML form of the document.
func (d *Document) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding topology yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding topology yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseJSON decodes a document from its JSON form.
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing topology json: %w", err)
	}
	return &doc, nil
}

// ParseYAML decodes a document from its YAML form.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing topology yaml: %w", err)
	}
	return &doc, nil
}

// LoadTopology reads a topology document from a JSON or YAML file,
// selected by extension.
func LoadTopology(path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("topology file %s: unsupported extension: %w", path, common.ErrNotSupportedArgValue)
	}
}

// SaveTopology writes the document next to LoadTopology, selected by
// extension.
func SaveTopology(d *Document, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = d.EncodeJSON()
	case ".yaml", ".yml":
		data, err = d.EncodeYAML()
	default:
		return fmt.Errorf("topology file %s: unsupported extension: %w", path, common.ErrNotSupportedArgValue)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), data, 0o644)
}

// BuildNetwork constructs a live network from the document. Document
// neuron ids are local to the document; the returned map translates
// them to the runtime ids allocated by the network registry.
func BuildNetwork(doc *Document, opts network.Options) (*network.Network, map[string]string, error) {
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}
	net, err := network.New(opts)
	if err != nil {
		return nil, nil, err
	}

	idMap := make(map[string]string, len(doc.Neurons))
	for _, nc := range doc.Neurons {
		n, err := net.CreateNeuron(nc.Bias, nc.Inputs)
		if err != nil {
			net.Shutdown()
			return nil, nil, fmt.Errorf("building neuron %q: %w", nc.ID, err)
		}
		idMap[nc.ID] = n.ID()
	}

	for i, link := range doc.Links {
		switch link.Kind {
		case LinkInput:
			err = net.SetupInput(*link.InputPort, idMap[link.DstID], common.PortIndex(*link.DstSynapseIdx))
		case LinkInner:
			err = net.ConnectNeurons(idMap[link.SrcID], idMap[link.DstID], common.PortIndex(*link.DstSynapseIdx))
		case LinkOutput:
			err = net.SetupOutput(*link.OutputPort, idMap[link.SrcID])
		}
		if err != nil {
			net.Shutdown()
			return nil, nil, fmt.Errorf("wiring link %d: %w", i, err)
		}
	}
	return net, idMap, nil
}

// SnapshotDocument extracts the topology document of a live network:
// every neuron with its current configuration plus the input, inner
// and output links reconstructed from the bound synapse sources and
// port bindings.
func SnapshotDocument(net *network.Network) (*Document, error) {
	ids := net.NeuronIDs()
	sort.Slice(ids, func(i, j int) bool {
		a, _ := ident.Index(ids[i], ident.Neuron)
		b, _ := ident.Index(ids[j], ident.Neuron)
		return a < b
	})

	doc := &Document{
		Inputs:  net.InputPortsLen(),
		Outputs: net.OutputPortsLen(),
	}

	var inputLinks, innerLinks, outputLinks []LinkCfg
	for _, id := range ids {
		n, err := net.GetNeuron(id)
		if err != nil {
			return nil, err
		}
		doc.Neurons = append(doc.Neurons, n.GetConfig())

		for port, src := range n.ConnectedSources() {
			idx := int(port)
			if ident.IsValid(src, ident.InputPort) {
				extPort, err := ident.Index(src, ident.InputPort)
				if err != nil {
					return nil, err
				}
				inputLinks = append(inputLinks, LinkCfg{
					Kind:          LinkInput,
					InputPort:     &extPort,
					DstID:         id,
					DstSynapseIdx: &idx,
				})
			} else {
				innerLinks = append(innerLinks, LinkCfg{
					Kind:          LinkInner,
					SrcID:         src,
					DstID:         id,
					DstSynapseIdx: &idx,
				})
			}
		}
	}

	bindings := net.OutputBindings()
	for port := range bindings {
		p := port
		outputLinks = append(outputLinks, LinkCfg{
			Kind:       LinkOutput,
			SrcID:      bindings[port],
			OutputPort: &p,
		})
	}

	sort.Slice(inputLinks, func(i, j int) bool {
		if *inputLinks[i].InputPort != *inputLinks[j].InputPort {
			return *inputLinks[i].InputPort < *inputLinks[j].InputPort
		}
		return *inputLinks[i].DstSynapseIdx < *inputLinks[j].DstSynapseIdx
	})
	sort.Slice(innerLinks, func(i, j int) bool {
		if innerLinks[i].SrcID != innerLinks[j].SrcID {
			return innerLinks[i].SrcID < innerLinks[j].SrcID
		}
		if innerLinks[i].DstID != innerLinks[j].DstID {
			return innerLinks[i].DstID < innerLinks[j].DstID
		}
		return *innerLinks[i].DstSynapseIdx < *innerLinks[j].DstSynapseIdx
	})
	sort.Slice(outputLinks, func(i, j int) bool {
		return *outputLinks[i].OutputPort < *outputLinks[j].OutputPort
	})

	doc.Links = append(doc.Links, inputLinks...)
	doc.Links = append(doc.Links, innerLinks...)
	doc.Links = append(doc.Links, outputLinks...)
	return doc, nil
}
