// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for hometree using Mage.
//
// Usage:
//
//	mage build             Compile the hometree binary to bin/
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude tests/)
//	mage test:integration  Build, then run only integration tests
//	mage lint              Check gofmt and go vet, then run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install hometree to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "hometree"
	binaryDir  = "bin"
	cmdDir     = "./cmd/hometree"
)

// Build compiles the hometree binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install installs hometree to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.RunV(binGo, "install", cmdDir)
}
