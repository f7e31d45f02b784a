// SPDX-License-Identifier: MIT

// Package oracle defines the pose-distance oracle consumed by the motion graph
// builder, and ships a reference CPU backend.
//
// An Oracle receives two frame sequences of root-relative joint transforms and
// returns a dense matrix D with D[i][j] the dissimilarity of frame i of the
// first sequence and frame j of the second. Only relative ordering matters to
// callers; absolute scale is compared against the transition threshold.
//
// PointCloud measures dissimilarity on a rigid skin proxy: a set of weighted
// points bound to joints, so the metric reflects body shape rather than raw
// joint angles. Rows are computed concurrently with errgroup.
package oracle
