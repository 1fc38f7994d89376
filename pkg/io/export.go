package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/table"
)

// WriteNodes encodes a node table as CSV with a header row. Cells are
// rendered with [table.Cell]; missing values become empty cells.
func WriteNodes(t *table.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	record := make([]string, len(t.Names()))
	for i := range t.Len() {
		for c, v := range t.Row(i) {
			record[c] = table.Cell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportNodes writes a node table to a CSV file at path.
func ExportNodes(t *table.Table, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteNodes(t, w) })
}

// WriteEdges encodes edges as source,target,weight CSV rows.
func WriteEdges(edges []graph.Edge, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "weight"}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, e := range edges {
		rec := []string{
			strconv.Itoa(e.Source),
			strconv.Itoa(e.Target),
			strconv.FormatFloat(e.Weight, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("encode edge %d->%d: %w", e.Source, e.Target, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportEdges writes edges to a CSV file at path.
func ExportEdges(edges []graph.Edge, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteEdges(edges, w) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
