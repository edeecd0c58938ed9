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

package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-montecarlo/batch"
	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/simulation"
)

const scenarios = `
seed = 42
concurrency = 2

[[scenario]]
name = "retire"
[scenario.params]
kind = "retirement"
initial_investment = 90000
mean_return = 0.08
volatility = 0.10
years = 30
simulations = 300
contribution = -20000

[[scenario]]
name = "basket"
[scenario.params]
kind = "Multi-Asset"
initial_investment = 10000
mean_return = 0.07
volatility = 0.15
years = 10
simulations = 200
assets = 12
correlation = 0.5

[[scenario]]
name = "pinned"
[scenario.params]
kind = "single_asset"
initial_investment = 10000
mean_return = 0.07
volatility = 0.15
years = 10
simulations = 50
seed = 7

[[scenario]]
name = "broken"
[scenario.params]
kind = "single_asset"
initial_investment = 10000
mean_return = 0.07
volatility = 0.15
years = 0
simulations = 50
`

var _ = Describe("Batch", func() {
	var f *batch.File

	BeforeEach(func() {
		var err error
		f, err = batch.Decode(strings.NewReader(scenarios))
		Expect(err).To(BeNil())
	})

	It("should decode every scenario", func() {
		Expect(f.Seed).To(Equal(uint64(42)))
		Expect(f.Concurrency).To(Equal(2))
		Expect(f.Scenarios).To(HaveLen(4))
		Expect(f.Scenarios[1].Params.Assets).To(Equal(12))
		Expect(f.Scenarios[2].Params.Seed).ToNot(BeNil())
		Expect(*f.Scenarios[2].Params.Seed).To(Equal(uint64(7)))
	})

	It("should load files from disk", func() {
		dir, err := os.MkdirTemp("", "batch")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)

		path := filepath.Join(dir, "scenarios.toml")
		Expect(os.WriteFile(path, []byte(scenarios), 0600)).To(Succeed())

		loaded, err := batch.Load(path)
		Expect(err).To(BeNil())
		Expect(loaded).To(Equal(f))
	})

	It("should run scenarios independently and in file order", func() {
		results, err := batch.Run(context.Background(), f, batch.Options{Limits: input.DefaultLimits})
		Expect(err).To(BeNil())
		Expect(results).To(HaveLen(4))

		Expect(results[0].Name).To(Equal("retire"))
		Expect(results[0].Err).To(BeNil())
		Expect(results[0].Report.Depletion).ToNot(BeNil())

		Expect(results[1].Err).To(BeNil())
		paths, years := results[1].Matrix.Dims()
		Expect(paths).To(Equal(200))
		Expect(years).To(Equal(11))

		Expect(results[2].Seed).To(Equal(uint64(7)))

		Expect(errors.Is(results[3].Err, simulation.ErrInvalidParameter)).To(BeTrue())
		Expect(results[3].Matrix).To(BeNil())
	})

	It("should be reproducible regardless of concurrency", func() {
		serial, err := batch.Run(context.Background(), f, batch.Options{Concurrency: 1})
		Expect(err).To(BeNil())
		parallel, err := batch.Run(context.Background(), f, batch.Options{Concurrency: 4})
		Expect(err).To(BeNil())

		for ii := range serial {
			Expect(parallel[ii].Seed).To(Equal(serial[ii].Seed))
			Expect(parallel[ii].Matrix).To(Equal(serial[ii].Matrix))
		}
	})

	It("should match a direct simulation with the derived seed", func() {
		results, err := batch.Run(context.Background(), f, batch.Options{})
		Expect(err).To(BeNil())

		seed := batch.DeriveSeed(42, "retire")
		req, err := f.Scenarios[0].Params.Request()
		Expect(err).To(BeNil())
		m, err := simulation.Simulate(req, simulation.NewStream(seed))
		Expect(err).To(BeNil())
		Expect(results[0].Matrix).To(Equal(m))
	})

	It("should derive different seeds for different names", func() {
		Expect(batch.DeriveSeed(42, "a")).ToNot(Equal(batch.DeriveSeed(42, "b")))
		Expect(batch.DeriveSeed(42, "a")).ToNot(Equal(batch.DeriveSeed(43, "a")))
		Expect(batch.DeriveSeed(42, "a")).To(Equal(batch.DeriveSeed(42, "a")))
	})

	It("should enforce limits", func() {
		results, err := batch.Run(context.Background(), f, batch.Options{Limits: input.Limits{MaxSimulations: 100}})
		Expect(err).To(BeNil())
		Expect(results[0].Err).ToNot(BeNil())
		Expect(input.Field(results[0].Err)).To(Equal(simulation.FieldSimulations))
		Expect(results[2].Err).To(BeNil())
	})

	It("should stop when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := batch.Run(ctx, f, batch.Options{})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	DescribeTable("should reject malformed files",
		func(doc string, expected error) {
			_, err := batch.Decode(strings.NewReader(doc))
			Expect(errors.Is(err, expected)).To(BeTrue())
		},
		Entry("no scenarios", "seed = 1\n", batch.ErrNoScenarios),
		Entry("unnamed scenario", "[[scenario]]\n[scenario.params]\nkind = \"retirement\"\n", batch.ErrUnnamedScenario),
		Entry("duplicate names", "[[scenario]]\nname = \"a\"\n[[scenario]]\nname = \"a\"\n", batch.ErrDuplicateScenario),
	)
})
