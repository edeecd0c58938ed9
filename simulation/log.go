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

package simulation

import (
	"github.com/rs/zerolog"
)

func (req Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Kind", string(req.Kind())).
		Float64("InitialInvestment", req.InitialInvestment).
		Float64("MeanReturn", req.MeanReturn).
		Float64("Volatility", req.Volatility).
		Int("Years", req.Years).
		Int("Simulations", req.Simulations)

	switch s := req.Scenario.(type) {
	case MultiAsset:
		e.Int("Assets", s.Assets).Float64("Correlation", s.Correlation)
	case Retirement:
		e.Float64("Contribution", s.Contribution)
	}
}
