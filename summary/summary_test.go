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

package summary_test

import (
	"bytes"
	"math"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-montecarlo/simulation"
	"github.com/penny-vault/pv-montecarlo/summary"
)

// ladder returns n paths where path i grows linearly by i per year
func ladder(n, years int) simulation.Matrix {
	m := simulation.NewMatrix(n, years+1)
	for ii, path := range m {
		for t := range path {
			path[t] = 100 + float64(ii*t)
		}
	}
	return m
}

var _ = Describe("Summary", func() {
	Describe("when trimming", func() {
		It("should drop the extreme final values", func() {
			m := ladder(20, 3)
			trimmed := summary.Trim(m, 5)
			Expect(trimmed).To(HaveLen(10))
			for _, path := range trimmed {
				Expect(path[3]).To(BeNumerically(">=", 100+5*3))
				Expect(path[3]).To(BeNumerically("<=", 100+14*3))
			}
		})

		It("should keep small matrices untouched", func() {
			m := ladder(10, 3)
			Expect(summary.Trim(m, 5)).To(HaveLen(10))
		})
	})

	Describe("when computing bands", func() {
		It("should average every year", func() {
			m := ladder(3, 2)
			Expect(summary.Average(m)).To(Equal([]float64{100, 101, 102}))
		})

		It("should interpolate percentiles", func() {
			m := ladder(101, 1)
			lower := summary.Percentile(m, 0.05)
			upper := summary.Percentile(m, 0.95)
			Expect(lower[0]).To(Equal(100.0))
			Expect(lower[1]).To(BeNumerically("~", 105, 1e-9))
			Expect(upper[1]).To(BeNumerically("~", 195, 1e-9))
		})

		It("should place quantiles at (n-1)*p between order statistics", func() {
			m := simulation.NewMatrix(10, 1)
			for ii := range m {
				m[9-ii][0] = float64(ii)
			}
			Expect(summary.Percentile(m, 0.05)[0]).To(BeNumerically("~", 0.45, 1e-12))
			Expect(summary.Percentile(m, 0.95)[0]).To(BeNumerically("~", 8.55, 1e-12))
			Expect(summary.Percentile(m, 0.5)[0]).To(BeNumerically("~", 4.5, 1e-12))
			Expect(summary.Percentile(m, 0)[0]).To(Equal(0.0))
			Expect(summary.Percentile(m, 1)[0]).To(Equal(9.0))
		})

		It("should return the only value of a single path", func() {
			m := simulation.Matrix{{42, 50}}
			Expect(summary.Percentile(m, 0.05)).To(Equal([]float64{42, 50}))
			Expect(summary.Percentile(m, 0.95)).To(Equal([]float64{42, 50}))
		})

		It("should return NaN for an empty sample", func() {
			Expect(math.IsNaN(summary.Quantile(nil, 0.5))).To(BeTrue())
		})

		It("should never put the ceiling below ten times the investment", func() {
			Expect(summary.Ceiling(ladder(3, 2), 100)).To(Equal(1001.0))
			Expect(summary.Ceiling(ladder(3, 2000), 100)).To(Equal(4100.0))
		})
	})

	Describe("when detecting depletion", func() {
		It("should find the first year at or below zero", func() {
			Expect(summary.FirstDepletion([]float64{100, 50, 0, -10})).To(Equal(2))
			Expect(summary.FirstDepletion([]float64{100, 50, 10})).To(Equal(summary.Never))
		})

		It("should average the depletion year over depleted paths", func() {
			m := simulation.Matrix{
				{100, 50, -1, -2},
				{100, -5, -1, -2},
				{100, 90, 80, 70},
				{100, 90, 80, 70},
			}
			d := summary.Depletion(m)
			Expect(d.Depleted).To(Equal(2))
			Expect(d.Probability).To(Equal(0.5))
			Expect(d.FirstYear).To(Equal([]int{2, 1, summary.Never, summary.Never}))
			Expect(*d.AverageYear).To(Equal(1.5))
			Expect(d.String()).To(Equal("Probability of running out of money: 50.0% | Average year of depletion: 1.5"))
		})

		It("should report never when nothing depletes", func() {
			d := summary.Depletion(ladder(4, 3))
			Expect(d.AverageYear).To(BeNil())
			Expect(d.AverageYearString()).To(Equal("Never"))
		})
	})

	Describe("when measuring risk", func() {
		It("should compute the max draw down of a path", func() {
			Expect(summary.MaxDrawDown([]float64{100, 120, 60, 150, 90})).To(BeNumerically("~", -0.5, 1e-12))
			Expect(summary.MaxDrawDown([]float64{100, 110, 120})).To(Equal(0.0))
			Expect(summary.MaxDrawDown([]float64{100, 20, -40})).To(Equal(-1.0))
		})

		It("should count paths that lose money", func() {
			m := simulation.Matrix{{100, 90}, {100, 110}, {100, 80}, {100, 120}}
			risk := summary.NewRisk(m, 100)
			Expect(risk.ProbabilityOfLoss).To(Equal(0.5))
			// returns -0.2 -0.1 0.1 0.2, draw downs -0.2 -0.1 0 0
			Expect(risk.ValueAtRisk95).To(BeNumerically("~", -0.185, 1e-12))
			Expect(risk.MaxDrawDownP50).To(BeNumerically("~", -0.05, 1e-12))
			Expect(risk.MaxDrawDownWorst5).To(BeNumerically("~", -0.185, 1e-12))
		})

		It("should put the worst draw downs under the worst 5% key", func() {
			m := simulation.Matrix{{100, 90}, {100, 110}, {100, 80}, {100, 120}}
			buf, err := json.Marshal(summary.NewRisk(m, 100))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(buf)).To(ContainSubstring(`"max_drawdown_worst5":`))
			Expect(string(buf)).NotTo(ContainSubstring("p95"))
		})
	})

	Describe("when building a report", func() {
		var req simulation.Request

		BeforeEach(func() {
			req = simulation.Request{
				InitialInvestment: 90_000,
				MeanReturn:        0.08,
				Volatility:        0.10,
				Years:             30,
				Simulations:       300,
				Scenario:          simulation.Retirement{Contribution: -20_000},
			}
		})

		It("should summarize a retirement drawdown", func() {
			m, err := simulation.Simulate(req, simulation.NewStream(42))
			Expect(err).To(BeNil())

			report := summary.New(req, m)
			Expect(report.Title).To(Equal("Retirement Simulation: 30-Year Portfolio"))
			Expect(report.Simulations).To(Equal(300))
			Expect(report.Retained).To(Equal(290))
			Expect(report.Average).To(HaveLen(31))
			Expect(report.Lower).To(HaveLen(31))
			Expect(report.Upper).To(HaveLen(31))
			Expect(report.Average[0]).To(Equal(90_000.0))
			Expect(report.Depletion).ToNot(BeNil())
			Expect(report.Depletion.Probability).To(BeNumerically(">", 0))
		})

		It("should skip depletion for contributions", func() {
			req.Scenario = simulation.Retirement{Contribution: 20_000}
			m, err := simulation.Simulate(req, simulation.NewStream(42))
			Expect(err).To(BeNil())
			Expect(summary.New(req, m).Depletion).To(BeNil())
		})

		It("should render a table", func() {
			m, err := simulation.Simulate(req, simulation.NewStream(42))
			Expect(err).To(BeNil())

			var buf bytes.Buffer
			summary.New(req, m).Table(&buf)
			out := buf.String()
			Expect(out).To(ContainSubstring("Retirement Simulation: 30-Year Portfolio"))
			Expect(out).To(ContainSubstring("$90,000"))
			Expect(out).To(ContainSubstring("Probability of running out of money"))
		})
	})

	It("should format dollars", func() {
		Expect(summary.Dollars(1234567.4)).To(Equal("$1,234,567"))
		Expect(summary.Dollars(-2500)).To(Equal("-$2,500"))
		Expect(summary.Dollars(0)).To(Equal("$0"))
	})
})
