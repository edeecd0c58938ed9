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

// Package batch runs a file of named scenarios concurrently. Every scenario
// gets its own random stream so that results do not depend on scheduling.
package batch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/simulation"
	"github.com/penny-vault/pv-montecarlo/summary"
)

var (
	ErrNoScenarios       = errors.New("batch file has no scenarios")
	ErrUnnamedScenario   = errors.New("scenario has no name")
	ErrDuplicateScenario = errors.New("duplicate scenario name")
)

// File is the TOML document read by Load:
//
//	seed = 42
//
//	[[scenario]]
//	name = "retire at 65"
//	[scenario.params]
//	kind = "retirement"
//	initial_investment = 500000
//	...
type File struct {
	Seed        uint64     `toml:"seed"`
	Concurrency int        `toml:"concurrency"`
	Scenarios   []Scenario `toml:"scenario"`
}

// Scenario is one named simulation request
type Scenario struct {
	Name   string       `toml:"name"`
	Params input.Params `toml:"params"`
}

// Options control how a batch is run
type Options struct {
	// Concurrency bounds the number of scenarios simulated at once; zero
	// uses the file's setting or the number of CPUs
	Concurrency int
	Limits      input.Limits
}

// Result is the outcome of one scenario. Err is set when the scenario could
// not be simulated; the other scenarios of the batch are unaffected.
type Result struct {
	Name    string
	Seed    uint64
	Request simulation.Request
	Matrix  simulation.Matrix
	Report  *summary.Report
	Err     error
}

// Load reads and validates a batch file
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses and validates a batch file
func Decode(r io.Reader) (*File, error) {
	f := &File{}
	if err := toml.NewDecoder(r).Decode(f); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	if len(f.Scenarios) == 0 {
		return ErrNoScenarios
	}

	names := make(map[string]bool, len(f.Scenarios))
	for ii, sc := range f.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario %d: %w", ii+1, ErrUnnamedScenario)
		}
		if names[sc.Name] {
			return fmt.Errorf("%q: %w", sc.Name, ErrDuplicateScenario)
		}
		names[sc.Name] = true
	}
	return nil
}

// DeriveSeed mixes a batch seed with a scenario name. Scenarios keep their
// streams when other scenarios are added, removed or reordered.
func DeriveSeed(base uint64, name string) uint64 {
	buf := make([]byte, 8, 8+len(name))
	binary.LittleEndian.PutUint64(buf, base)
	buf = append(buf, name...)
	sum := blake3.Sum256(buf)
	return binary.LittleEndian.Uint64(sum[:8])
}

// Run simulates every scenario of f. Results are returned in file order. The
// error is only set if ctx is cancelled before the batch completes.
func Run(ctx context.Context, f *File, opts Options) ([]*Result, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = f.Concurrency
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	results := make([]*Result, len(f.Scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for ii := range f.Scenarios {
		ii := ii
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[ii] = runScenario(f.Scenarios[ii], f.Seed, opts.Limits)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runScenario(sc Scenario, baseSeed uint64, limits input.Limits) *Result {
	res := &Result{
		Name: sc.Name,
		Seed: DeriveSeed(baseSeed, sc.Name),
	}
	if sc.Params.Seed != nil {
		res.Seed = *sc.Params.Seed
	}

	req, err := sc.Params.Request()
	if err == nil {
		err = limits.Check(req)
	}
	if err != nil {
		log.Warn().Err(err).Str("Scenario", sc.Name).Msg("invalid scenario")
		res.Err = err
		return res
	}

	m, err := simulation.Simulate(req, simulation.NewStream(res.Seed))
	if err != nil {
		log.Warn().Err(err).Str("Scenario", sc.Name).Object("Request", req).Msg("scenario failed")
		res.Err = err
		return res
	}

	res.Request = req
	res.Matrix = m
	res.Report = summary.New(req, m)
	log.Info().Str("Scenario", sc.Name).Uint64("Seed", res.Seed).Object("Report", res.Report).Msg("scenario finished")
	return res
}
