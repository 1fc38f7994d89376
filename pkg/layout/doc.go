// Package layout computes 2D coordinates for a clustered similarity graph.
//
// A [Strategy] is selected once by name through [New]. The closed set is:
//
//   - cluster: global projection, then a Kamada-Kawai layout per cluster,
//     compressed toward its centroid and separated with [overlap.Resolve].
//   - circle: one packed circle per cluster, nodes packed or force laid out
//     inside.
//   - multicircle: outer circles per coarse group holding inner circles per
//     fine group.
//   - forcedirected: spring layout of the largest connected component.
//   - tsne, umap: projection only.
//   - random: uniform in the unit disk.
//
// [Compute] runs the selected strategy and the optional rotation post-step
// that turns the first principal axis to a given angle.
//
// Nodes without a computed position are absent from [Positions].
package layout
