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

package simulation_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

func growthRequest(scenario simulation.Scenario) simulation.Request {
	return simulation.Request{
		InitialInvestment: 100,
		MeanReturn:        0.08,
		Volatility:        0.20,
		Years:             10,
		Simulations:       20_000,
		Scenario:          scenario,
	}
}

var _ = Describe("Simulate", func() {
	Describe("when simulating the retirement example", func() {
		var (
			req simulation.Request
			m   simulation.Matrix
		)

		BeforeEach(func() {
			var err error
			req = simulation.Request{
				InitialInvestment: 90_000,
				MeanReturn:        0.08,
				Volatility:        0.10,
				Years:             30,
				Simulations:       300,
				Scenario:          simulation.Retirement{Contribution: 20_000},
			}
			m, err = simulation.Simulate(req, simulation.NewStream(42))
			Expect(err).To(BeNil())
		})

		It("should have one row per simulation and one column per year", func() {
			paths, years := m.Dims()
			Expect(paths).To(Equal(300))
			Expect(years).To(Equal(31))
			for _, path := range m {
				Expect(path).To(HaveLen(31))
			}
		})

		It("should start every path at the initial investment", func() {
			for _, v := range m.Column(0) {
				Expect(v).To(Equal(90_000.0))
			}
		})

		It("should be reproducible for the same seed", func() {
			again, err := simulation.Simulate(req, simulation.NewStream(42))
			Expect(err).To(BeNil())
			Expect(again).To(Equal(m))
		})

		It("should differ for a different seed", func() {
			other, err := simulation.Simulate(req, simulation.NewStream(43))
			Expect(err).To(BeNil())
			Expect(other).ToNot(Equal(m))
		})
	})

	Describe("when volatility is zero", func() {
		It("should grow every single asset path deterministically", func() {
			req := simulation.Request{
				InitialInvestment: 1_000,
				MeanReturn:        0.05,
				Volatility:        0,
				Years:             20,
				Simulations:       25,
				Scenario:          simulation.SingleAsset{},
			}
			m, err := simulation.Simulate(req, simulation.NewStream(7))
			Expect(err).To(BeNil())

			for _, path := range m {
				Expect(path).To(Equal(m[0]))
			}
			for t, v := range m[0] {
				Expect(v).To(BeNumerically("~", 1_000*math.Pow(1.05, float64(t)), 1e-6))
			}
		})

		It("should grow every multi-asset path deterministically", func() {
			req := simulation.Request{
				InitialInvestment: 1_000,
				MeanReturn:        0.05,
				Volatility:        0,
				Years:             5,
				Simulations:       10,
				Scenario:          simulation.MultiAsset{Assets: 4, Correlation: 0.5},
			}
			m, err := simulation.Simulate(req, simulation.NewStream(7))
			Expect(err).To(BeNil())
			for _, path := range m {
				for t, v := range path {
					Expect(v).To(BeNumerically("~", 1_000*math.Pow(1.05, float64(t)), 1e-6))
				}
			}
		})
	})

	DescribeTable("the cross-path average converges to the compounded mean",
		func(scenario simulation.Scenario) {
			req := growthRequest(scenario)
			m, err := simulation.Simulate(req, simulation.NewStream(2022))
			Expect(err).To(BeNil())

			for _, t := range []int{1, 5, 10} {
				expected := req.InitialInvestment * math.Pow(1+req.MeanReturn, float64(t))
				Expect(stat.Mean(m.Column(t), nil)).To(BeNumerically("~", expected, expected*0.03))
			}
		},
		Entry("single asset", simulation.SingleAsset{}),
		Entry("multi-asset with one asset", simulation.MultiAsset{Assets: 1, Correlation: 0}),
		Entry("multi-asset with correlated assets", simulation.MultiAsset{Assets: 5, Correlation: 0.3}),
		Entry("multi-asset with perfectly correlated assets", simulation.MultiAsset{Assets: 3, Correlation: 1}),
		Entry("retirement without contributions", simulation.Retirement{Contribution: 0}),
	)

	It("should never produce negative values in growth scenarios", func() {
		for _, scenario := range []simulation.Scenario{simulation.SingleAsset{}, simulation.MultiAsset{Assets: 3, Correlation: -0.2}} {
			req := growthRequest(scenario)
			req.Simulations = 500
			req.Volatility = 0.6
			m, err := simulation.Simulate(req, simulation.NewStream(11))
			Expect(err).To(BeNil())
			for _, path := range m {
				for _, v := range path {
					Expect(v).To(BeNumerically(">=", 0))
				}
			}
		}
	})

	It("should match the single asset dispersion when the basket holds one asset", func() {
		single, err := simulation.Simulate(growthRequest(simulation.SingleAsset{}), simulation.NewStream(5))
		Expect(err).To(BeNil())
		multi, err := simulation.Simulate(growthRequest(simulation.MultiAsset{Assets: 1}), simulation.NewStream(6))
		Expect(err).To(BeNil())

		singleSD := stat.StdDev(single.Final(), nil)
		multiSD := stat.StdDev(multi.Final(), nil)
		Expect(multiSD).To(BeNumerically("~", singleSD, singleSD*0.08))
	})

	It("should reduce diversifiable risk as correlation falls", func() {
		high, err := simulation.Simulate(growthRequest(simulation.MultiAsset{Assets: 10, Correlation: 0.9}), simulation.NewStream(8))
		Expect(err).To(BeNil())
		low, err := simulation.Simulate(growthRequest(simulation.MultiAsset{Assets: 10, Correlation: 0.1}), simulation.NewStream(8))
		Expect(err).To(BeNil())

		Expect(stat.StdDev(low.Final(), nil)).To(BeNumerically("<", stat.StdDev(high.Final(), nil)))
	})

	It("should reduce to the single asset recurrence when retirement contribution is zero", func() {
		req := growthRequest(simulation.SingleAsset{})
		req.Simulations = 200
		single, err := simulation.Simulate(req, simulation.NewStream(99))
		Expect(err).To(BeNil())

		req.Scenario = simulation.Retirement{Contribution: 0}
		retirement, err := simulation.Simulate(req, simulation.NewStream(99))
		Expect(err).To(BeNil())

		Expect(retirement).To(Equal(single))
	})

	It("should add contributions before applying the year's return", func() {
		req := simulation.Request{
			InitialInvestment: 100,
			MeanReturn:        0.10,
			Volatility:        0,
			Years:             2,
			Simulations:       1,
			Scenario:          simulation.Retirement{Contribution: 50},
		}
		m, err := simulation.Simulate(req, simulation.NewStream(1))
		Expect(err).To(BeNil())
		Expect(m[0][1]).To(BeNumerically("~", 165, 1e-9))
		Expect(m[0][2]).To(BeNumerically("~", 236.5, 1e-9))
	})

	It("should deplete portfolios with large withdrawals", func() {
		req := simulation.Request{
			InitialInvestment: 90_000,
			MeanReturn:        0.08,
			Volatility:        0.10,
			Years:             30,
			Simulations:       300,
			Scenario:          simulation.Retirement{Contribution: -20_000},
		}
		m, err := simulation.Simulate(req, simulation.NewStream(42))
		Expect(err).To(BeNil())

		depleted := 0
		for _, path := range m {
			for _, v := range path[1:] {
				if v <= 0 {
					depleted++
					break
				}
			}
		}
		Expect(depleted).To(BeNumerically(">", 0))
	})

	Describe("when the request is invalid", func() {
		DescribeTable("should report the offending field",
			func(mutate func(*simulation.Request), field string) {
				req := simulation.Request{
					InitialInvestment: 10_000,
					MeanReturn:        0.07,
					Volatility:        0.15,
					Years:             10,
					Simulations:       100,
					Scenario:          simulation.SingleAsset{},
				}
				mutate(&req)

				m, err := simulation.Simulate(req, simulation.NewStream(1))
				Expect(m).To(BeNil())
				Expect(errors.Is(err, simulation.ErrInvalidParameter)).To(BeTrue())

				var paramErr *simulation.ParameterError
				Expect(errors.As(err, &paramErr)).To(BeTrue())
				Expect(paramErr.Field).To(Equal(field))
			},
			Entry("zero years", func(r *simulation.Request) { r.Years = 0 }, simulation.FieldYears),
			Entry("negative years", func(r *simulation.Request) { r.Years = -3 }, simulation.FieldYears),
			Entry("zero simulations", func(r *simulation.Request) { r.Simulations = 0 }, simulation.FieldSimulations),
			Entry("zero initial investment", func(r *simulation.Request) { r.InitialInvestment = 0 }, simulation.FieldInitialInvestment),
			Entry("NaN mean return", func(r *simulation.Request) { r.MeanReturn = math.NaN() }, simulation.FieldMeanReturn),
			Entry("total loss mean return", func(r *simulation.Request) { r.MeanReturn = -1 }, simulation.FieldMeanReturn),
			Entry("negative volatility", func(r *simulation.Request) { r.Volatility = -0.1 }, simulation.FieldVolatility),
			Entry("missing scenario", func(r *simulation.Request) { r.Scenario = nil }, simulation.FieldKind),
			Entry("basket without assets", func(r *simulation.Request) { r.Scenario = simulation.MultiAsset{Assets: 0} }, simulation.FieldAssets),
			Entry("correlation above one", func(r *simulation.Request) { r.Scenario = simulation.MultiAsset{Assets: 2, Correlation: 1.5} }, simulation.FieldCorrelation),
			Entry("infinite contribution", func(r *simulation.Request) { r.Scenario = simulation.Retirement{Contribution: math.Inf(-1)} }, simulation.FieldContribution),
		)

		It("should require a random stream", func() {
			_, err := simulation.Simulate(growthRequest(simulation.SingleAsset{}), nil)
			Expect(errors.Is(err, simulation.ErrInvalidParameter)).To(BeTrue())
		})

		It("should report a degenerate covariance separately", func() {
			req := growthRequest(simulation.MultiAsset{Assets: 3, Correlation: -0.6})
			m, err := simulation.Simulate(req, simulation.NewStream(1))
			Expect(m).To(BeNil())
			Expect(errors.Is(err, simulation.ErrCovarianceNotPSD)).To(BeTrue())
			Expect(errors.Is(err, simulation.ErrInvalidParameter)).To(BeFalse())

			var degenerate *simulation.DegeneracyError
			Expect(errors.As(err, &degenerate)).To(BeTrue())
			Expect(degenerate.Assets).To(Equal(3))
			Expect(degenerate.MinEigenvalue).To(BeNumerically("<", 0))
		})

		It("should accept the most negative correlation that is still semi-definite", func() {
			req := growthRequest(simulation.MultiAsset{Assets: 3, Correlation: -0.5})
			req.Simulations = 100
			_, err := simulation.Simulate(req, simulation.NewStream(1))
			Expect(err).To(BeNil())
		})
	})
})

var _ = Describe("Kind", func() {
	DescribeTable("when parsing scenario names",
		func(input string, expected simulation.Kind) {
			kind, err := simulation.ParseKind(input)
			Expect(err).To(BeNil())
			Expect(kind).To(Equal(expected))
		},
		Entry("identifier", "multi_asset", simulation.MultiAssetKind),
		Entry("display name", "Single Stock", simulation.SingleAssetKind),
		Entry("display name with dash", "Multi-Asset", simulation.MultiAssetKind),
		Entry("mixed case with whitespace", "  RETIREMENT ", simulation.RetirementKind),
	)

	It("should reject unknown scenarios", func() {
		_, err := simulation.ParseKind("crypto")
		Expect(errors.Is(err, simulation.ErrInvalidParameter)).To(BeTrue())
	})

	It("should expose display names", func() {
		Expect(simulation.SingleAssetKind.DisplayName()).To(Equal("Single Stock"))
		Expect(simulation.Retirement{}.Kind()).To(Equal(simulation.RetirementKind))
	})
})
