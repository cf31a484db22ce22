// Package patsfile reads and writes saved diagrams. The native format is the
// .pats JSON document, which is byte-for-byte the wire shape the engine
// consumes; a YAML rendering of the same structure is supported as an
// authoring convenience for hand-written nets.
package patsfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/patsnet/petri/dto"
)

// Load decodes a .pats JSON document.
func Load(r io.Reader) (*dto.PetriNet, error) {
	var net dto.PetriNet
	if err := json.NewDecoder(r).Decode(&net); err != nil {
		return nil, fmt.Errorf("decoding pats document: %w", err)
	}
	return &net, nil
}

// Save encodes a net as an indented .pats JSON document.
func Save(w io.Writer, net *dto.PetriNet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(net)
}

// LoadYAML decodes the YAML authoring format.
func LoadYAML(r io.Reader) (*dto.PetriNet, error) {
	var net dto.PetriNet
	if err := yaml.NewDecoder(r).Decode(&net); err != nil {
		return nil, fmt.Errorf("decoding yaml net: %w", err)
	}
	return &net, nil
}

// SaveYAML encodes a net in the YAML authoring format.
func SaveYAML(w io.Writer, net *dto.PetriNet) error {
	enc := yaml.NewEncoder(w)
	defer func() {
		_ = enc.Close()
	}()
	return enc.Encode(net)
}

// LoadFile picks the codec from the file extension: .yml/.yaml use the YAML
// format, everything else is treated as .pats JSON.
func LoadFile(path string) (*dto.PetriNet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return LoadYAML(f)
	default:
		return Load(f)
	}
}

// SaveFile writes a net next to LoadFile's extension rules.
func SaveFile(path string, net *dto.PetriNet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return SaveYAML(f, net)
	default:
		return Save(f, net)
	}
}
