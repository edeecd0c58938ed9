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
	"github.com/rs/zerolog"
)

func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Kind", string(r.Kind)).
		Int("Years", r.Years).
		Int("Simulations", r.Simulations).
		Int("Retained", r.Retained).
		Float64("FinalMean", r.FinalMean).
		Float64("FinalMedian", r.FinalMedian).
		Float64("ProbabilityOfLoss", r.Risk.ProbabilityOfLoss).
		Float64("MaxDrawDownWorst5", r.Risk.MaxDrawDownWorst5)
	if r.Depletion != nil {
		e.Object("Depletion", r.Depletion)
	}
}

func (d *DepletionStats) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("Probability", d.Probability).
		Int("Depleted", d.Depleted).
		Str("AverageYear", d.AverageYearString())
}
