// Package main provides the manifold CLI.
package main

import "github.com/mesh-intelligence/manifold/internal/cli"

func main() {
	cli.Execute()
}
