//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	name = "semwatch"
)

// Builds a release binary for the current platform.
func Linux() error {
	return build(map[string]string{"GOOS": "linux", "CGO_ENABLED": "0"}, name)
}

// Builds a binary for AIX, where most DB2 servers live.
func Aix() error {
	return build(map[string]string{
		"GOOS": "aix", "GOARCH": "ppc64", "CGO_ENABLED": "0"}, name+"-aix")
}

func Test() error {
	return sh.RunV(mg.GoCmd(), "test", "./...")
}

func Clean() error {
	return sh.Rm("output")
}

func build(env map[string]string, output string) error {
	if err := os.Mkdir("output", 0700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create output: %v", err)
	}

	return sh.RunWith(
		env,
		mg.GoCmd(), "build",
		"-o", filepath.Join("output", output),
		"-ldflags=-s -w "+flags(),
		"./bin/")
}

func flags() string {
	timestamp := time.Now().Format(time.RFC3339)
	return fmt.Sprintf(`-X "www.velocidex.com/golang/semwatch/constants.BUILD_TIME=%s" -X "www.velocidex.com/golang/semwatch/constants.COMMIT_HASH=%s"`, timestamp, hash())
}

// hash returns the git hash for the current repo or "" if none.
func hash() string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return hash
}
