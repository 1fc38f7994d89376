// Package io reads entity tables and writes pipeline results.
//
// # Entities
//
// Entities are read from CSV with a header row. Every column is kept as
// text; the pipeline only interprets the tag column and, when configured,
// the size column:
//
//	name,tags,stars
//	bubbletea,tui|go|cli,27000
//	ratatui,tui|rust,11000
//
// Embeddings are a separate numeric CSV with one row per entity, in
// entity order. A header row is detected and skipped.
//
// # Results
//
// [WriteNodes] writes the decorated node table (input columns, row_id,
// cluster labels and names, metrics, x and y). Nodes without coordinates
// get empty x and y cells. [WriteEdges] writes the sparsified graph as
// source,target,weight rows keyed by row id.
//
// [WriteSummary] writes a JSON document with the run id, timings, and every
// cluster per hierarchy level with its name, parent and size. The summary
// is what `landscape inspect` browses:
//
//	s := io.NewSummary(result)
//	err := io.ExportSummary(s, "summary.json")
package io
