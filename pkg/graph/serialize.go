package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal converts a Graph to pretty-printed JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// Unmarshal decodes JSON bytes into a Graph and checks the parallel-slice
// invariant. Index-range validation needs the coordinate matrices and is
// deferred to [Graph.Validate].
func Unmarshal(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	if len(g.Head) != len(g.Tail) || len(g.Head) != len(g.EpochsPerSample) {
		return nil, fmt.Errorf("graph edge slices have mismatched lengths: head=%d tail=%d weights=%d",
			len(g.Head), len(g.Tail), len(g.EpochsPerSample))
	}
	return &g, nil
}

// Write writes a Graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// Read decodes a JSON graph from r.
func Read(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes a Graph to a JSON file with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Graph from a JSON file.
func ReadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
