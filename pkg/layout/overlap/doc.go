// Package overlap removes overlap between circles while keeping their
// arrangement.
//
// [Resolve] repeats the following until no neighbouring pair overlaps or
// the iteration cap is reached:
//
//  1. Triangulate the centres ([Triangulate], Bowyer-Watson).
//  2. Weight each triangulation edge by dist - (1-f)(r1+r2); negative
//     weights mark overlapping neighbours.
//  3. Take a minimum spanning tree (gonum path.Kruskal), root it at the
//     lowest-id leaf, and walk it breadth first. Whenever a child overlaps
//     its parent, the child and everything below it move away along the
//     centre line by the overlap.
//
// The overlap debt, the summed positive overlap over triangulation edges,
// never increases: an iteration that would raise it is rolled back and ends
// the loop.
package overlap
