//go:build mage

// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg" // mg contains helpful utility functions, like Deps
	"github.com/magefile/mage/sh"
)

const (
	binaryName    = "pvmc"
	packageName   = "."
	commonPackage = "github.com/penny-vault/pv-montecarlo/common"
	coverProfile  = "coverage.out"
)

var ldflags = "-X " + commonPackage + ".commitHash=$COMMIT_HASH -X " + commonPackage + ".buildDate=$BUILD_DATE"

// allow user to override go executable by running as GOEXE=xxx mage ... on unix-like systems
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

var Default = Build

// Build the pvmc binary with version information
func Build() error {
	fmt.Println("Building...")
	return sh.RunWith(flagEnv(), goexe, args("build", "-o", binaryName, "-ldflags", ldflags, buildFlags(), packageName)...)
}

// Install pvmc into GOBIN
func Install() error {
	return sh.RunWith(flagEnv(), goexe, args("install", "-ldflags", ldflags, buildFlags(), packageName)...)
}

// Clean up
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(binaryName)
	os.RemoveAll(coverProfile)
}

// Run tests and linters
func Check() {
	mg.Deps(Fmt, Vet)

	// the simulation suites saturate the CPUs, run them after the linters
	mg.Deps(TestRace)
}

// Run tests
func Test() error {
	fmt.Println("Go Test")
	return runCmd(goexe, "test", "./...")
}

// Run tests with race detector
func TestRace() error {
	fmt.Println("Go Test Race")
	return runCmd(goexe, "test", "-race", "./...")
}

// Run gofmt linter
func Fmt() error {
	fmt.Println("Go Format")

	// gofmt doesn't exit with non-zero when it finds unformatted code so we
	// have to explicitly look for output
	s, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("error running gofmt: %w", err)
	}

	var unformatted []string
	for _, f := range strings.Split(s, "\n") {
		if f != "" && !strings.HasPrefix(f, "_") {
			unformatted = append(unformatted, f)
		}
	}
	if len(unformatted) > 0 {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(strings.Join(unformatted, "\n"))
		return errors.New("improperly formatted go files")
	}
	return nil
}

// Run go vet linter
func Vet() error {
	fmt.Println("Go Vet")

	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

// Generate test coverage report
func TestCoverHTML() error {
	fmt.Println("Generate Test Coverage HTML")

	if err := runCmd(goexe, "test", "-coverprofile="+coverProfile, "-covermode=count", "./..."); err != nil {
		return err
	}
	return sh.Run(goexe, "tool", "cover", "-html="+coverProfile)
}

// Helpers

func buildFlags() []string {
	if runtime.GOOS == "windows" {
		return []string{"-buildmode", "exe"}
	}
	return nil
}

func flagEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}

func runCmd(cmd string, inArgs ...string) error {
	if mg.Verbose() {
		return sh.Run(cmd, inArgs...)
	}
	output, err := sh.Output(cmd, inArgs...)
	if err != nil {
		fmt.Fprint(os.Stderr, output)
	}
	return err
}

// args flattens strings and string slices into an argument list, dropping
// empty values
func args(v ...interface{}) []string {
	var out []string
	for _, arg := range v {
		switch v := arg.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case []string:
			out = append(out, v...)
		default:
			panic("invalid type")
		}
	}
	return out
}
