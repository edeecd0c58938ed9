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
	"math"
	"sort"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

// Risk collects downside measures over every simulated path. Losses are
// negative fractions, e.g. -0.25 is a 25% loss, so the worst outcomes sit in
// the low quantiles: the 5% tail of returns and draw downs is the 0.05
// quantile.
type Risk struct {
	// fraction of paths that finish below the initial investment
	ProbabilityOfLoss float64 `json:"probability_of_loss"`

	// 5th percentile of the total return over the horizon
	ValueAtRisk95 float64 `json:"var95"`

	// median of the per-path max draw down
	MaxDrawDownP50 float64 `json:"max_drawdown_p50"`

	// 0.05 quantile of the per-path max draw down; only 5% of paths fall
	// further
	MaxDrawDownWorst5 float64 `json:"max_drawdown_worst5"`
}

// NewRisk computes risk measures for m
func NewRisk(m simulation.Matrix, initialInvestment float64) Risk {
	if len(m) == 0 {
		return Risk{}
	}

	final := m.Final()
	returns := make([]float64, len(final))
	losses := 0
	for ii, v := range final {
		returns[ii] = v/initialInvestment - 1.0
		if v < initialInvestment {
			losses++
		}
	}
	sort.Float64s(returns)

	dd := make([]float64, len(m))
	for ii, path := range m {
		dd[ii] = MaxDrawDown(path)
	}
	sort.Float64s(dd)

	return Risk{
		ProbabilityOfLoss: float64(losses) / float64(len(m)),
		ValueAtRisk95:     Quantile(returns, 0.05),
		MaxDrawDownP50:    Quantile(dd, 0.5),
		MaxDrawDownWorst5: Quantile(dd, 0.05),
	}
}

// MaxDrawDown returns the largest peak to trough loss of path as a negative
// fraction. A path that falls to zero or below has lost everything, -1.
func MaxDrawDown(path []float64) float64 {
	if len(path) == 0 {
		return 0
	}

	peak := path[0]
	maxLoss := 0.0
	for _, value := range path {
		peak = math.Max(peak, value)
		if peak <= 0 {
			continue
		}
		loss := value/peak - 1.0
		if loss < maxLoss {
			maxLoss = loss
		}
	}
	return math.Max(maxLoss, -1)
}
