//go:build mage

// Package main provides build targets for the manifold project using Mage.
//
// Usage:
//
//	mage build     Compile manifold binary to bin/
//	mage test      Run all tests
//	mage race      Run all tests with the race detector
//	mage cover     Write coverage to bin/coverage.out and print the summary
//	mage lint      Run golangci-lint
//	mage verify    Build, then check Jacobians of every built-in model
//	mage clean     Remove build artifacts
//	mage install   Install manifold to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "manifold"
	binaryDir  = "bin"
	cmdDir     = "./cmd/manifold"
)

// verifyConfigs holds one config.yaml per built-in model, each exercising
// position, orientation and joint-limit constraints on the tip link.
var verifyConfigs = map[string]string{
	"planar3": `robot: {model: planar3}
constraints:
  position:
    - {link: tip, position: [0, 2, 0], half_extents: [-1, 0.05, -1]}
  orientation:
    - {link: tip, target: [1, 0, 0, 0], tolerances: [0.1, 0.1, 0.5]}
  joint_limits: {enabled: true}
`,
	"fanuc": `robot: {model: fanuc}
constraints:
  position:
    - {link: tool0, position: [0.8, 0, 0.8], half_extents: [0.1, 0.1, 0.1]}
  orientation:
    - {link: tool0, target: [0, 0, 1, 0], tolerances: [0.1, 0.1, 3.2]}
  joint_limits: {enabled: true}
`,
	"panda": `robot: {model: panda}
constraints:
  position:
    - {link: panda_link8, position: [0.5, 0, 0.5], half_extents: [0.1, 0.1, -1]}
  orientation:
    - {link: panda_link8, target: [0, 1, 0, 0], tolerances: [0.1, 0.1, 3.2]}
  joint_limits: {enabled: true}
`,
}

// Build compiles the manifold binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs all tests with the race detector.
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs all tests with coverage and prints the per-function summary.
func Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := sh.RunV("go", "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+profile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Verify builds the binary and runs "manifold check" against every
// built-in model in a scratch config directory.
func Verify() error {
	mg.Deps(Build)
	bin := filepath.Join(binaryDir, binaryName)
	for model, cfg := range verifyConfigs {
		dir, err := os.MkdirTemp("", "manifold-verify-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
			return err
		}
		fmt.Printf("== %s\n", model)
		if err := sh.RunV(bin, "--config-dir", dir, "--data-dir", filepath.Join(dir, "data"), "check"); err != nil {
			return fmt.Errorf("check %s: %w", model, err)
		}
	}
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
