// Package cli implements the landscape command-line interface.
//
// This package wires the pipeline to files: it reads an entity CSV (and
// optionally an embeddings CSV), runs similarity, clustering, naming and
// layout, and writes node and edge tables, a JSON summary and an optional
// Graphviz preview. The CLI is built using cobra and logs via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - run: Execute the pipeline on an entity table
//   - config: Print the default configuration or validate a config file
//   - inspect: Browse the clusters of a summary interactively
//   - cache: Manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli
