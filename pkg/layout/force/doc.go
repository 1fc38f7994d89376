// Package force computes force-directed node placements.
//
// [KamadaKawai] minimises spring energy against target graph distances and
// is used to lay out the members of a single cluster. [Eades] wraps gonum's
// spring-electrical optimiser for whole-graph layouts.
//
// Both return positions centred on the origin and scaled so the farthest
// node lies at distance one, leaving final sizing to the caller.
package force
