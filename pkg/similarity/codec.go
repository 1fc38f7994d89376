package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Encode serializes a similarity matrix with gonum's binary format.
// An empty matrix encodes to nil.
func Encode(m *mat.Dense) ([]byte, error) {
	if m == nil || m.IsEmpty() {
		return nil, nil
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode similarity: %w", err)
	}
	return data, nil
}

// Decode restores a matrix written by [Encode].
func Decode(data []byte) (*mat.Dense, error) {
	var m mat.Dense
	if len(data) == 0 {
		return &m, nil
	}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode similarity: %w", err)
	}
	return &m, nil
}
