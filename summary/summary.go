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

// Package summary condenses a simulation matrix into the statistics shown to
// users: a trimmed average path, percentile bands, risk measures and, for
// retirement withdrawals, the chance of running out of money.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

const (
	// TrimCount paths are dropped from each end of the final value ranking
	// before the average and bands are computed
	TrimCount       = 5
	LowerPercentile = 0.05
	UpperPercentile = 0.95
)

// Report is the summary of one simulation run
type Report struct {
	Kind        simulation.Kind `json:"kind"`
	Title       string          `json:"title"`
	Years       int             `json:"years"`
	Simulations int             `json:"simulations"`
	Retained    int             `json:"retained"`
	Average     []float64       `json:"average"`
	Lower       []float64       `json:"p5"`
	Upper       []float64       `json:"p95"`
	FinalMean   float64         `json:"final_mean"`
	FinalMedian float64         `json:"final_median"`
	Ceiling     float64         `json:"ceiling"`
	Risk        Risk            `json:"risk"`
	Depletion   *DepletionStats `json:"depletion,omitempty"`
}

// New summarizes m, the result of simulating req. The average path and bands
// are computed over the trimmed matrix; risk and depletion use every path.
func New(req simulation.Request, m simulation.Matrix) *Report {
	trimmed := Trim(m, TrimCount)
	average := Average(trimmed)
	final := trimmed.Final()
	sort.Float64s(final)

	report := &Report{
		Kind:        req.Kind(),
		Title:       fmt.Sprintf("%s Simulation: %d-Year Portfolio", req.Kind().DisplayName(), req.Years),
		Years:       req.Years,
		Simulations: len(m),
		Retained:    len(trimmed),
		Average:     average,
		Lower:       Percentile(trimmed, LowerPercentile),
		Upper:       Percentile(trimmed, UpperPercentile),
		Ceiling:     Ceiling(trimmed, req.InitialInvestment),
		Risk:        NewRisk(m, req.InitialInvestment),
	}

	if len(final) > 0 {
		report.FinalMean = average[len(average)-1]
		report.FinalMedian = Quantile(final, 0.5)
	}

	if retirement, ok := req.Scenario.(simulation.Retirement); ok && retirement.Contribution < 0 {
		report.Depletion = Depletion(m)
	}

	return report
}

// Trim removes the n paths with the lowest and the n paths with the highest
// final value. Matrices with 2n paths or fewer are returned unchanged. The
// returned matrix shares rows with m.
func Trim(m simulation.Matrix, n int) simulation.Matrix {
	if n <= 0 || len(m) <= 2*n {
		return m
	}

	final := m.Final()
	idx := make([]int, len(m))
	for ii := range idx {
		idx[ii] = ii
	}
	sort.SliceStable(idx, func(a, b int) bool { return final[idx[a]] < final[idx[b]] })

	trimmed := make(simulation.Matrix, 0, len(m)-2*n)
	for _, ii := range idx[n : len(idx)-n] {
		trimmed = append(trimmed, m[ii])
	}
	return trimmed
}

// Average returns the cross-path mean for every year
func Average(m simulation.Matrix) []float64 {
	_, years := m.Dims()
	avg := make([]float64, years)
	for t := range avg {
		avg[t] = stat.Mean(m.Column(t), nil)
	}
	return avg
}

// Percentile returns the p-quantile (0 <= p <= 1) of every year, see Quantile
func Percentile(m simulation.Matrix, p float64) []float64 {
	_, years := m.Dims()
	res := make([]float64, years)
	for t := range res {
		col := m.Column(t)
		sort.Float64s(col)
		res[t] = Quantile(col, p)
	}
	return res
}

// Quantile returns the p-quantile of the ascending slice sorted. The position
// (n-1)*p is interpolated linearly between the neighbouring order statistics,
// matching numpy's default percentile. An empty slice yields NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Ceiling is the upper bound of a chart of m: the largest simulated value or
// ten times the initial investment plus one, whichever is larger
func Ceiling(m simulation.Matrix, initialInvestment float64) float64 {
	ceiling := initialInvestment*10 + 1
	for _, path := range m {
		if len(path) > 0 {
			ceiling = math.Max(ceiling, floats.Max(path))
		}
	}
	return ceiling
}
