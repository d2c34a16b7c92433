//go:build mage

// Package main provides build targets for stockroom using Mage.
//
// Usage:
//
//	mage build       Compile the stockroom binary to bin/
//	mage test        Run all tests
//	mage testMongo   Run the tests against a MongoDB server
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install stockroom to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "stockroom"
	binaryDir  = "bin"
	cmdDir     = "./cmd/stockroom"

	envMongoURI     = "STOCKROOM_TEST_MONGO_URI"
	defaultMongoURI = "mongodb://localhost:27017"
)

// Build compiles the stockroom binary to bin/, stamping the version from
// git describe when available.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v",
		"-ldflags", "-X main.version="+version(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests. MongoDB tests skip unless STOCKROOM_TEST_MONGO_URI is set.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// TestMongo runs the MongoDB backend tests, against STOCKROOM_TEST_MONGO_URI
// or a local server.
func TestMongo() error {
	uri := os.Getenv(envMongoURI)
	if uri == "" {
		uri = defaultMongoURI
	}
	return sh.RunWithV(map[string]string{envMongoURI: uri}, binGo, "test", "-v", "./internal/mongo/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(out) == "" {
		return "dev"
	}
	return strings.TrimSpace(out)
}
