// SPDX-License-Identifier: MIT

// Package mograph synthesizes character locomotion along a 2D path by
// stitching frames of captured motion clips together through a motion graph.
//
// 🚀 What is mograph?
//
//	A pure-Go toolkit that takes a set of sampled motion clips and:
//		• measures pose similarity between every pair of frames (point clouds)
//		• picks transition candidates from local minima of the distance grid
//		• prunes the graph to its largest strongly connected component
//		• searches for a walk whose root trajectory follows a target path
//		• plays a walk back frame by frame, blending across transitions
//
// Under the hood, everything is organized under these subpackages:
//
//	geom/        - 3D vectors, quaternions and planar rigid transforms
//	clip/        - Clip, Pose and Track types plus the YAML clip format
//	matrix/      - dense row-major storage and the local-minima kernel
//	oracle/      - pose-distance oracles (point-cloud metric, Func adapter)
//	scc/         - Tarjan strongly connected components over int vertices
//	motiongraph/ - graph construction, regions, walks and trajectories
//	clipspace/   - root-space bookkeeping: frames, alignment, blend weight
//	curve/       - target paths: polylines and Catmull-Rom splines
//	synth/       - windowed branch-and-bound path synthesis
//	playback/    - tick-driven playback with cross-fades at transitions
//	store/       - SQLite persistence of built graphs
//	config/      - viper-backed configuration
//	cmd/mograph  - build, inspect, synth and play from the command line
//
// Quick start:
//
//	mograph build --clips walk.yaml --clips run.yaml --out graph.db
//	mograph synth --graph graph.db --clips walk.yaml --clips run.yaml 0,0 40,0 40,30
package mograph
