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
	"github.com/penny-vault/pv-montecarlo/simulation"
)

// Params is the typed form of a request used by the HTTP API and batch files.
// Scenario specific members are ignored unless Kind selects them.
type Params struct {
	Kind              string  `json:"kind" toml:"kind"`
	InitialInvestment float64 `json:"initial_investment" toml:"initial_investment"`
	MeanReturn        float64 `json:"mean_return" toml:"mean_return"`
	Volatility        float64 `json:"volatility" toml:"volatility"`
	Years             int     `json:"years" toml:"years"`
	Simulations       int     `json:"simulations" toml:"simulations"`
	Assets            int     `json:"assets,omitempty" toml:"assets,omitempty"`
	Correlation       float64 `json:"correlation,omitempty" toml:"correlation,omitempty"`
	Contribution      float64 `json:"contribution,omitempty" toml:"contribution,omitempty"`
	Seed              *uint64 `json:"seed,omitempty" toml:"seed,omitempty"`
}

// Defaults returns the values the form is pre-filled with for kind
func Defaults(kind simulation.Kind) Params {
	p := Params{
		Kind:              string(kind),
		InitialInvestment: 90_000,
		MeanReturn:        0.08,
		Volatility:        0.10,
		Years:             30,
		Simulations:       300,
	}

	switch kind {
	case simulation.MultiAssetKind:
		p.Assets = 12
		p.Correlation = 0.5
	case simulation.RetirementKind:
		p.Contribution = 20_000
	}

	return p
}

// Request builds and validates the tagged request described by p
func (p Params) Request() (simulation.Request, error) {
	kind, err := simulation.ParseKind(p.Kind)
	if err != nil {
		return simulation.Request{}, err
	}

	req := simulation.Request{
		InitialInvestment: p.InitialInvestment,
		MeanReturn:        p.MeanReturn,
		Volatility:        p.Volatility,
		Years:             p.Years,
		Simulations:       p.Simulations,
	}

	switch kind {
	case simulation.SingleAssetKind:
		req.Scenario = simulation.SingleAsset{}
	case simulation.MultiAssetKind:
		req.Scenario = simulation.MultiAsset{Assets: p.Assets, Correlation: p.Correlation}
	case simulation.RetirementKind:
		req.Scenario = simulation.Retirement{Contribution: p.Contribution}
	}

	if err := req.Validate(); err != nil {
		return simulation.Request{}, err
	}

	return req, nil
}

// FromRequest is the inverse of Params.Request
func FromRequest(req simulation.Request, seed *uint64) Params {
	p := Params{
		Kind:              string(req.Kind()),
		InitialInvestment: req.InitialInvestment,
		MeanReturn:        req.MeanReturn,
		Volatility:        req.Volatility,
		Years:             req.Years,
		Simulations:       req.Simulations,
		Seed:              seed,
	}

	switch s := req.Scenario.(type) {
	case simulation.MultiAsset:
		p.Assets = s.Assets
		p.Correlation = s.Correlation
	case simulation.Retirement:
		p.Contribution = s.Contribution
	}

	return p
}
