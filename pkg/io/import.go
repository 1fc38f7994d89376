package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/table"
)

// ReadEntities decodes a CSV entity table from r. The first record is the
// header. Cells are kept as strings.
//
// ReadEntities returns an INVALID_INPUT error if the CSV is malformed, a
// record has the wrong number of fields, or a header name repeats.
// ReadEntities does not close r.
func ReadEntities(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode entities")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entities CSV has no header")
	}
	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	t, err := table.FromRecords(header, records[1:])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode entities")
	}
	return t, nil
}

// ImportEntities reads an entity CSV file at path.
func ImportEntities(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadEntities(f)
}

// ReadEmbeddings decodes a numeric CSV with one vector per row. A first
// row that does not parse as numbers is treated as a header and skipped.
// All rows must have the same width.
func ReadEmbeddings(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode embeddings")
	}

	var out [][]float64
	for i, rec := range records {
		vec, err := parseVector(rec)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "embeddings row %d", i+1)
		}
		if len(out) > 0 && len(vec) != len(out[0]) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"embeddings row %d has %d values, want %d", i+1, len(vec), len(out[0]))
		}
		out = append(out, vec)
	}
	return out, nil
}

// ImportEmbeddings reads an embeddings CSV file at path.
func ImportEmbeddings(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadEmbeddings(f)
}

func parseVector(rec []string) ([]float64, error) {
	vec := make([]float64, len(rec))
	for j, s := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j+1, err)
		}
		vec[j] = v
	}
	return vec, nil
}
