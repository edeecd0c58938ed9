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

package input

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

// Limits bound the size of a request accepted from an untrusted caller. A
// zero value disables the corresponding bound.
type Limits struct {
	MaxYears       int
	MaxSimulations int
	MaxAssets      int
}

var DefaultLimits = Limits{
	MaxYears:       100,
	MaxSimulations: 100_000,
	MaxAssets:      100,
}

// LimitsFromConfig reads simulation.max_years, simulation.max_simulations and
// simulation.max_assets, falling back to DefaultLimits
func LimitsFromConfig() Limits {
	limits := DefaultLimits
	if viper.IsSet("simulation.max_years") {
		limits.MaxYears = viper.GetInt("simulation.max_years")
	}
	if viper.IsSet("simulation.max_simulations") {
		limits.MaxSimulations = viper.GetInt("simulation.max_simulations")
	}
	if viper.IsSet("simulation.max_assets") {
		limits.MaxAssets = viper.GetInt("simulation.max_assets")
	}
	return limits
}

// Check returns a *simulation.ParameterError for the first bound req exceeds
func (l Limits) Check(req simulation.Request) error {
	if l.MaxYears > 0 && req.Years > l.MaxYears {
		return atMost(simulation.FieldYears, l.MaxYears)
	}
	if l.MaxSimulations > 0 && req.Simulations > l.MaxSimulations {
		return atMost(simulation.FieldSimulations, l.MaxSimulations)
	}
	if basket, ok := req.Scenario.(simulation.MultiAsset); ok && l.MaxAssets > 0 && basket.Assets > l.MaxAssets {
		return atMost(simulation.FieldAssets, l.MaxAssets)
	}
	return nil
}

func atMost(field string, limit int) error {
	return &simulation.ParameterError{Field: field, Reason: fmt.Sprintf("must be at most %d", limit)}
}
