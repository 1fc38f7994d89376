// Package similarity builds the dense N×N similarity matrix between
// entities.
//
// Two sources are supported:
//
//   - [FromTags]: weighted tag lists. Tags are filtered (blacklist, then
//     tags seen on only one entity), each entity becomes a sparse term
//     vector with binary or IDF entries, and the matrix holds the pairwise
//     cosine similarity.
//   - [FromEmbeddings]: pre-normalised vectors. The matrix holds the
//     pairwise dot product.
//
// The result always has a zero diagonal. Entities whose tags are all
// filtered out keep an all-zero row and are reported in [Report.EmptyRows].
//
// Matrices are gonum *mat.Dense values and can be cached with [Encode] and
// [Decode].
package similarity
