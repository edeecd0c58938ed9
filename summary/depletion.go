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

package summary

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

// Never marks a path that does not deplete within the horizon
const Never = -1

// DepletionStats describes how often, and how early, portfolios run out of
// money
type DepletionStats struct {
	Probability float64  `json:"probability"`
	Depleted    int      `json:"depleted"`
	FirstYear   []int    `json:"first_year"`
	AverageYear *float64 `json:"average_year"`
}

// Depletion finds, for every path, the first year its value is zero or below
func Depletion(m simulation.Matrix) *DepletionStats {
	stats := &DepletionStats{
		FirstYear: make([]int, len(m)),
	}

	years := make([]float64, 0, len(m))
	for ii, path := range m {
		stats.FirstYear[ii] = FirstDepletion(path)
		if stats.FirstYear[ii] != Never {
			years = append(years, float64(stats.FirstYear[ii]))
		}
	}

	stats.Depleted = len(years)
	if len(m) > 0 {
		stats.Probability = float64(stats.Depleted) / float64(len(m))
	}
	if len(years) > 0 {
		avg := stat.Mean(years, nil)
		stats.AverageYear = &avg
	}

	return stats
}

// FirstDepletion returns the first year at which path is zero or below, or
// Never
func FirstDepletion(path []float64) int {
	for t, v := range path {
		if v <= 0 {
			return t
		}
	}
	return Never
}

// AverageYearString formats the average depletion year with one decimal or
// returns "Never"
func (d *DepletionStats) AverageYearString() string {
	if d.AverageYear == nil {
		return "Never"
	}
	return fmt.Sprintf("%.1f", *d.AverageYear)
}

func (d *DepletionStats) String() string {
	return fmt.Sprintf("Probability of running out of money: %.1f%% | Average year of depletion: %s",
		d.Probability*100, d.AverageYearString())
}
