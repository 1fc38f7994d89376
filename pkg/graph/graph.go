package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Edge List Serialization API
// =============================================================================

// MarshalEdges converts an edge list to JSON bytes.
func MarshalEdges(edges []Edge) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeEdgesTo(edges, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalEdges decodes JSON bytes to an edge list.
func UnmarshalEdges(data []byte) ([]Edge, error) {
	return readEdgesFrom(bytes.NewReader(data))
}

// WriteEdgesFile writes an edge list to a JSON file.
// The file is created with 0644 permissions.
func WriteEdgesFile(edges []Edge, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeEdgesTo(edges, f)
}

// WriteEdges writes an edge list as JSON to an io.Writer.
func WriteEdges(edges []Edge, w io.Writer) error {
	return writeEdgesTo(edges, w)
}

// ReadEdgesFile reads a JSON edge list from a file.
func ReadEdgesFile(path string) ([]Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readEdgesFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

type edgeList struct {
	Edges []Edge `json:"edges"`
}

func writeEdgesTo(edges []Edge, w io.Writer) error {
	if edges == nil {
		edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(edgeList{Edges: edges}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readEdgesFrom(r io.Reader) ([]Edge, error) {
	var data edgeList
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return data.Edges, nil
}
