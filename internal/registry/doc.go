// Package registry implements the Node Registry (C5): a process-wide
// type-id -> factory map used to rebuild a live graph from a persisted
// Graph Definition, plus an HCL-authored catalog of node-type metadata
// (display name, category, description) in the style of the teacher's
// module-manifest system.
package registry
