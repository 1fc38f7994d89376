// Package sparsify turns a dense similarity matrix into a sparse, possibly
// asymmetric edge list.
//
// [Threshold] runs three steps:
//
//  1. Connectivity floor. The threshold is the smallest row maximum over
//     rows that have any positive entry, so every such node keeps at least
//     its best edge.
//  2. Budget. If more than N·L edges survive, each row keeps
//     max(round(f·count), 1) of its strongest edges, f = N·L / total.
//  3. Isolated-pair repair. Two nodes whose only surviving edges connect
//     them to each other get their second-best edge restored, so the pair
//     does not form a detached dumbbell.
//
// Rows are independent in steps 1 and 2, which is why A→B can survive
// without B→A.
package sparsify
