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

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

const ProgramName = "pvmc"

var (
	// commitHash contains the current Git revision.
	// Use mage to build to make sure this gets set.
	commitHash string

	// buildDate contains the date of the current build.
	buildDate string
)

// Version represents a SemVer 2.0.0 compatible build version
type Version struct {
	Major int
	Minor int
	Patch int

	// Suffix is blank for release versions
	Suffix string
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix == "" {
		return s
	}

	s += "-" + v.Suffix
	if commitHash != "" {
		s += "+" + strings.ToLower(commitHash)
	}
	return s
}

// BuildVersionString is what you see when running "pvmc version"
func BuildVersionString() string {
	date := buildDate
	if date == "" {
		date = "unknown"
	}

	commit := commitHash
	if commit == "" {
		commit = "unknown"
	}

	return fmt.Sprintf("%s v%s %s/%s\n\nBuild Date: %s\nCommit: %s\nBuilt with: %s",
		ProgramName, CurrentVersion, runtime.GOOS, runtime.GOARCH, date, commit, runtime.Version())
}

// DependencyList returns the sorted module dependencies in the form
// path="version"
func DependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	deps := make([]string, 0, len(bi.Deps))
	for _, dep := range bi.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}
	sort.Strings(deps)

	return deps
}
