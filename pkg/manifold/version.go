// Package manifold holds build metadata for the manifold module.
package manifold

// Version is the semantic version of the manifold module.
const Version = "0.1.0"
